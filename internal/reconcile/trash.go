// ABOUTME: Soft-delete state machine: move to trash, restore with merge, permanent delete
// ABOUTME: A record lives in exactly one of its source collection or the trash at any time

package reconcile

import (
	"fmt"
	"time"

	"github.com/harper/wikifaves/internal/models"
)

// MoveToTrash moves key from the source collection into Trash tagged with
// source and trashDate = now. An existing trash entry for key is replaced.
func MoveToTrash(snap models.Snapshot, key models.PageKey, source models.SourceType, now time.Time) (Result, error) {
	snap = snap.Normalize()

	var rec models.TrashRecord
	switch source {
	case models.SourceFavorites:
		fav, ok := snap.Favorites[key]
		if !ok {
			return unchanged(snap), fmt.Errorf("%w: %q in favorites", ErrNotFound, key)
		}
		rec = models.NewFavoriteTrash(fav, now)
	case models.SourceHistory:
		h, ok := snap.History[key]
		if !ok {
			return unchanged(snap), fmt.Errorf("%w: %q in history", ErrNotFound, key)
		}
		rec = models.NewHistoryTrash(h, now)
	default:
		return unchanged(snap), fmt.Errorf("invalid source type %q", source)
	}

	trash := snap.Trash.Clone()
	trash[key] = rec
	snap.Trash = trash

	res := Result{}
	res.touch(models.CollectionTrash)
	if source == models.SourceFavorites {
		favs := snap.Favorites.Clone()
		delete(favs, key)
		snap.Favorites = favs
		res.touch(models.CollectionFavorites)
		res.Event = event(models.ActionUnfavorited, key)
	} else {
		hist := snap.History.Clone()
		delete(hist, key)
		snap.History = hist
		res.touch(models.CollectionHistory)
	}
	res.Snapshot = snap
	return res, nil
}

// RestoreFromTrash moves key back into its source collection. A record created
// there while the item sat in the trash is merged with the restored one, never overwritten.
func RestoreFromTrash(snap models.Snapshot, key models.PageKey) (Result, error) {
	snap = snap.Normalize()
	rec, ok := snap.Trash[key]
	if !ok {
		return unchanged(snap), fmt.Errorf("%w: %q in trash", ErrNotFound, key)
	}
	if err := rec.Validate(); err != nil {
		return unchanged(snap), fmt.Errorf("trash entry %q: %w", key, err)
	}

	res := Result{}
	switch rec.SourceType {
	case models.SourceFavorites:
		favs := snap.Favorites.Clone()
		restored := *rec.Favorite
		if existing, ok := favs[key]; ok {
			restored = MergeFavorite(existing, restored)
		}
		favs[key] = restored
		snap.Favorites = favs
		res.touch(models.CollectionFavorites)
		res.Event = event(models.ActionFavorited, key)
	case models.SourceHistory:
		hist := snap.History.Clone()
		restored := rec.History.Clone()
		if existing, ok := hist[key]; ok {
			restored = MergeHistory(existing, restored)
		}
		hist[key] = restored
		snap.History = hist
		res.touch(models.CollectionHistory)
	}

	trash := snap.Trash.Clone()
	delete(trash, key)
	snap.Trash = trash
	res.touch(models.CollectionTrash)

	res.Snapshot = snap
	return res, nil
}

// DeleteFromTrash permanently removes key from Trash.
func DeleteFromTrash(snap models.Snapshot, key models.PageKey) (Result, error) {
	snap = snap.Normalize()
	if _, ok := snap.Trash[key]; !ok {
		return unchanged(snap), fmt.Errorf("%w: %q in trash", ErrNotFound, key)
	}
	trash := snap.Trash.Clone()
	delete(trash, key)
	snap.Trash = trash

	res := Result{Snapshot: snap}
	res.touch(models.CollectionTrash)
	return res, nil
}

// EmptyTrash permanently removes every trash entry.
func EmptyTrash(snap models.Snapshot) Result {
	snap = snap.Normalize()
	if len(snap.Trash) == 0 {
		return unchanged(snap)
	}
	snap.Trash = models.Trash{}
	res := Result{Snapshot: snap}
	res.touch(models.CollectionTrash)
	return res
}
