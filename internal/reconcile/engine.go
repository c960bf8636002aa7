// ABOUTME: Pure reconciliation functions over collection snapshots: toggle and visit tracking
// ABOUTME: Every function copies the collections it touches and never mutates its input

package reconcile

import (
	"errors"
	"time"

	"github.com/harper/wikifaves/internal/models"
)

// ErrNotFound means the key is absent from the collection an operation targets.
// Callers treat it as a reported no-op.
var ErrNotFound = errors.New("not found")

// Result is the outcome of one engine operation.
type Result struct {
	// Snapshot is the full post-operation state. Collections not listed in
	// Touched are shared with the input snapshot and must not be mutated.
	Snapshot models.Snapshot

	Changed          bool
	FavoritesChanged bool

	// Touched lists the collections the caller has to write back.
	Touched []models.Collection

	// Event is set when favorite state changed in a way observers care about.
	Event *models.Event
}

func unchanged(snap models.Snapshot) Result {
	return Result{Snapshot: snap}
}

func (r *Result) touch(c models.Collection) {
	for _, t := range r.Touched {
		if t == c {
			return
		}
	}
	r.Touched = append(r.Touched, c)
	r.Changed = true
	if c == models.CollectionFavorites {
		r.FavoritesChanged = true
	}
}

func event(action models.Action, key models.PageKey) *models.Event {
	return &models.Event{Action: action, PageKey: key}
}

// ToggleFavorite removes key from Favorites if present, otherwise adds it
// with dateAdded = now. Each call flips state exactly once.
func ToggleFavorite(snap models.Snapshot, page models.Page, now time.Time) Result {
	snap = snap.Normalize()
	favs := snap.Favorites.Clone()

	res := Result{}
	if _, ok := favs[page.Key]; ok {
		delete(favs, page.Key)
		res.Event = event(models.ActionUnfavorited, page.Key)
	} else {
		favs[page.Key] = models.Favorite{
			URL:          page.URL,
			DisplayTitle: page.DisplayTitle,
			DateAdded:    now,
		}
		res.Event = event(models.ActionFavorited, page.Key)
	}

	snap.Favorites = favs
	res.Snapshot = snap
	res.touch(models.CollectionFavorites)
	return res
}

// RecordVisit counts a page view. Reloads of an already-tracked page are ignored.
func RecordVisit(snap models.Snapshot, page models.Page, now time.Time, isReload bool) Result {
	snap = snap.Normalize()
	existing, ok := snap.History[page.Key]
	if ok && isReload {
		return unchanged(snap)
	}

	hist := snap.History.Clone()
	if !ok {
		hist[page.Key] = models.HistoryRecord{
			URL:          page.URL,
			DisplayTitle: page.DisplayTitle,
			VisitCount:   1,
			FirstVisit:   now,
			LastVisit:    now,
			Visits:       []time.Time{now},
		}
	} else {
		rec := existing.Clone()
		rec.VisitCount++
		rec.LastVisit = now
		rec.Visits = CapVisits(append(rec.Visits, now))
		hist[page.Key] = rec
	}

	snap.History = hist
	res := Result{Snapshot: snap}
	res.touch(models.CollectionHistory)
	return res
}

// CapVisits keeps the most recent models.MaxVisits entries of an ascending sequence.
func CapVisits(visits []time.Time) []time.Time {
	if len(visits) <= models.MaxVisits {
		return visits
	}
	return append([]time.Time(nil), visits[len(visits)-models.MaxVisits:]...)
}
