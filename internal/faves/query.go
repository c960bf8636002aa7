// ABOUTME: Read-only service operations: listings, per-page views and counters
// ABOUTME: Reads take the same lock as writes so they never see a half-applied cycle

package faves

import (
	"context"
	"fmt"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
	"github.com/harper/wikifaves/internal/storage"
)

// PageView is everything stored about one page.
type PageView struct {
	Key      models.PageKey        `json:"key"`
	Favorite *models.Favorite      `json:"favorite,omitempty"`
	History  *models.HistoryRecord `json:"history,omitempty"`
	Trash    *models.TrashRecord   `json:"trash,omitempty"`
}

// IsFavorite reports whether the page is currently favorited.
func (v PageView) IsFavorite() bool { return v.Favorite != nil }

// Title returns the best known display title.
func (v PageView) Title() string {
	switch {
	case v.Favorite != nil && v.Favorite.DisplayTitle != "":
		return v.Favorite.DisplayTitle
	case v.History != nil && v.History.DisplayTitle != "":
		return v.History.DisplayTitle
	case v.Trash != nil && v.Trash.DisplayTitle() != "":
		return v.Trash.DisplayTitle()
	}
	return resolve.DefaultTitle(v.Key)
}

// Snapshot returns a copy of the local collections.
func (s *Service) Snapshot(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := storage.LoadSnapshot(ctx, s.local)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// List returns the entries of one collection in display order.
func (s *Service) List(ctx context.Context, c models.Collection, opts reconcile.QueryOptions) ([]reconcile.Entry, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if opts.Locale == "" {
		opts.Locale = s.locale
	}
	if opts.Sort == "" {
		opts.Sort = s.sorts[c]
	}
	return reconcile.List(snap, c, opts), nil
}

// Get returns what is stored about key. Found is false when no collection holds it.
func (s *Service) Get(ctx context.Context, key models.PageKey) (view PageView, found bool, err error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return PageView{}, false, err
	}
	return viewOf(snap, key), inAny(snap, key), nil
}

// IsFavorite reports whether key is in Favorites.
func (s *Service) IsFavorite(ctx context.Context, key models.PageKey) (bool, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	_, ok := snap.Favorites[key]
	return ok, nil
}

// Stats returns collection counters.
func (s *Service) Stats(ctx context.Context) (reconcile.Stats, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return reconcile.Stats{}, err
	}
	return reconcile.Summarize(snap), nil
}

func viewOf(snap models.Snapshot, key models.PageKey) PageView {
	v := PageView{Key: key}
	if f, ok := snap.Favorites[key]; ok {
		v.Favorite = &f
	}
	if h, ok := snap.History[key]; ok {
		h = h.Clone()
		v.History = &h
	}
	if t, ok := snap.Trash[key]; ok {
		t = t.Clone()
		v.Trash = &t
	}
	return v
}

func inAny(snap models.Snapshot, key models.PageKey) bool {
	_, f := snap.Favorites[key]
	_, h := snap.History[key]
	_, t := snap.Trash[key]
	return f || h || t
}

// pageFor builds a page for key from stored records, falling back to the
// canonical URL and a title derived from the key.
func (s *Service) pageFor(ctx context.Context, key models.PageKey) (models.Page, error) {
	view, _, err := s.Get(ctx, key)
	if err != nil {
		return models.Page{}, err
	}
	page := resolve.Lookup(key)
	page.DisplayTitle = view.Title()
	switch {
	case view.Favorite != nil && view.Favorite.URL != "":
		page.URL = view.Favorite.URL
	case view.History != nil && view.History.URL != "":
		page.URL = view.History.URL
	}
	return page, nil
}
