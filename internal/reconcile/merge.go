// ABOUTME: Deterministic merge rules shared by restore, bulk import and sync pull
// ABOUTME: Favorites keep the earliest dateAdded; history counts add and visit windows concatenate

package reconcile

import (
	"sort"
	"time"

	"github.com/harper/wikifaves/internal/models"
)

// MergeFavorite combines two favorite records for the same key. The existing
// record's URL and title win unless empty; dateAdded is the earlier of the two.
func MergeFavorite(existing, incoming models.Favorite) models.Favorite {
	out := existing
	if out.URL == "" {
		out.URL = incoming.URL
	}
	if out.DisplayTitle == "" {
		out.DisplayTitle = incoming.DisplayTitle
	}
	out.DateAdded = earliest(existing.DateAdded, incoming.DateAdded)
	return out
}

// MergeHistory combines two history records for the same key. Counts add,
// visits concatenate in chronological order capped to the most recent
// models.MaxVisits, firstVisit is the minimum and lastVisit the maximum.
func MergeHistory(existing, incoming models.HistoryRecord) models.HistoryRecord {
	out := models.HistoryRecord{
		URL:          existing.URL,
		DisplayTitle: existing.DisplayTitle,
		VisitCount:   existing.VisitCount + incoming.VisitCount,
		FirstVisit:   earliest(existing.FirstVisit, incoming.FirstVisit),
		LastVisit:    latest(existing.LastVisit, incoming.LastVisit),
	}
	if out.URL == "" {
		out.URL = incoming.URL
	}
	if out.DisplayTitle == "" {
		out.DisplayTitle = incoming.DisplayTitle
	}

	visits := make([]time.Time, 0, len(existing.Visits)+len(incoming.Visits))
	visits = append(visits, existing.Visits...)
	visits = append(visits, incoming.Visits...)
	sort.SliceStable(visits, func(i, j int) bool { return visits[i].Before(visits[j]) })
	out.Visits = CapVisits(visits)
	return out
}

// earliest returns the earlier non-zero time.
func earliest(a, b time.Time) time.Time {
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case b.Before(a):
		return b
	}
	return a
}

// latest returns the later of two times.
func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// ImportSummary counts what a bulk import did to each collection.
type ImportSummary struct {
	FavoritesAdded  int `json:"favoritesAdded"`
	FavoritesMerged int `json:"favoritesMerged"`
	HistoryAdded    int `json:"historyAdded"`
	HistoryMerged   int `json:"historyMerged"`
	TrashAdded      int `json:"trashAdded"`
	TrashSkipped    int `json:"trashSkipped"`
}

// Total is the number of incoming records that changed local state.
func (s ImportSummary) Total() int {
	return s.FavoritesAdded + s.FavoritesMerged + s.HistoryAdded + s.HistoryMerged + s.TrashAdded
}

// MergeImport folds an externally supplied dataset into the local snapshot.
// Every local and incoming key survives. Incoming trash entries are only
// inserted when the key is neither in local Trash nor live in its source
// collection after the favorites and history merge.
func MergeImport(snap models.Snapshot, incoming models.Snapshot) (Result, ImportSummary) {
	snap = snap.Normalize()
	incoming = incoming.Normalize()
	var sum ImportSummary
	res := Result{}

	if len(incoming.Favorites) > 0 {
		favs := snap.Favorites.Clone()
		for key, in := range incoming.Favorites {
			if existing, ok := favs[key]; ok {
				favs[key] = MergeFavorite(existing, in)
				sum.FavoritesMerged++
			} else {
				favs[key] = in
				sum.FavoritesAdded++
			}
		}
		snap.Favorites = favs
		res.touch(models.CollectionFavorites)
	}

	if len(incoming.History) > 0 {
		hist := snap.History.Clone()
		for key, in := range incoming.History {
			in = in.Clone()
			in.Visits = CapVisits(sortedVisits(in.Visits))
			if in.Visits == nil {
				in.Visits = []time.Time{}
			}
			if existing, ok := hist[key]; ok {
				hist[key] = MergeHistory(existing, in)
				sum.HistoryMerged++
			} else {
				hist[key] = in
				sum.HistoryAdded++
			}
		}
		snap.History = hist
		res.touch(models.CollectionHistory)
	}

	if len(incoming.Trash) > 0 {
		trash := snap.Trash.Clone()
		for key, in := range incoming.Trash {
			if _, ok := trash[key]; ok || liveInSource(snap, key, in.SourceType) {
				sum.TrashSkipped++
				continue
			}
			trash[key] = in.Clone()
			sum.TrashAdded++
		}
		if sum.TrashAdded > 0 {
			snap.Trash = trash
			res.touch(models.CollectionTrash)
		}
	}

	res.Snapshot = snap
	return res, sum
}

func liveInSource(snap models.Snapshot, key models.PageKey, source models.SourceType) bool {
	switch source {
	case models.SourceFavorites:
		_, ok := snap.Favorites[key]
		return ok
	case models.SourceHistory:
		_, ok := snap.History[key]
		return ok
	}
	return false
}

func sortedVisits(v []time.Time) []time.Time {
	if sort.SliceIsSorted(v, func(i, j int) bool { return v[i].Before(v[j]) }) {
		return v
	}
	out := append([]time.Time(nil), v...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// MergeSynced adopts favorites recorded on other devices. Keys currently in
// Trash are skipped so a pull never resurrects a soft-deleted favorite.
// The second return value is the number of keys added or moved earlier.
func MergeSynced(snap models.Snapshot, remote models.Favorites) (Result, int) {
	snap = snap.Normalize()
	favs := snap.Favorites.Clone()
	n := 0
	for key, in := range remote {
		if _, trashed := snap.Trash[key]; trashed {
			continue
		}
		existing, ok := favs[key]
		if !ok {
			favs[key] = in
			n++
			continue
		}
		merged := MergeFavorite(existing, in)
		if !sameFavorite(merged, existing) {
			favs[key] = merged
			n++
		}
	}
	if n == 0 {
		return unchanged(snap), 0
	}
	snap.Favorites = favs
	res := Result{Snapshot: snap}
	res.touch(models.CollectionFavorites)
	return res, n
}

func sameFavorite(a, b models.Favorite) bool {
	return a.URL == b.URL && a.DisplayTitle == b.DisplayTitle && a.DateAdded.Equal(b.DateAdded)
}
