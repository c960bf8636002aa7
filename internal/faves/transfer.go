// ABOUTME: Bulk import and export of collections as JSON datasets or OPML link lists
// ABOUTME: Imports are validated in full before any write; merges never lose data

package faves

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/opml"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
	"github.com/harper/wikifaves/internal/transfer"
)

// OPMLFolder is the folder favorites are grouped under in OPML exports.
const OPMLFolder = "Favorites"

// ImportResult reports the effect of an import.
type ImportResult struct {
	reconcile.ImportSummary
	// Skipped counts OPML links that were not Wikipedia articles.
	Skipped int `json:"skipped,omitempty"`
	Outcome Outcome `json:"-"`
}

// Export writes all local collections as a JSON dataset.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return transfer.Encode(w, snap, s.timestamp())
}

// Import decodes and merges a JSON dataset. A malformed document is rejected
// before anything is written.
func (s *Service) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	ds, err := transfer.Decode(r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.ImportSnapshot(ctx, ds.Snapshot())
}

// ImportSnapshot merges incoming collections into the local scope.
func (s *Service) ImportSnapshot(ctx context.Context, incoming models.Snapshot) (ImportResult, error) {
	var result ImportResult
	out, err := s.mutate(ctx, "import", func(snap models.Snapshot, _ time.Time) (reconcile.Result, error) {
		res, summary := reconcile.MergeImport(snap, incoming)
		result.ImportSummary = summary
		return res, nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	result.Outcome = out
	s.logger.Info("import merged",
		"favorites_added", result.FavoritesAdded, "favorites_merged", result.FavoritesMerged,
		"history_added", result.HistoryAdded, "history_merged", result.HistoryMerged,
		"trash_added", result.TrashAdded, "trash_skipped", result.TrashSkipped)
	return result, nil
}

// ImportOPML merges the Wikipedia links of an OPML document into favorites.
// Links without a created date are stamped with the current time.
func (s *Service) ImportOPML(ctx context.Context, r io.Reader) (ImportResult, error) {
	doc, err := opml.Parse(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import opml: %w", err)
	}

	now := s.timestamp()
	incoming := models.Snapshot{Favorites: models.Favorites{}}
	skipped := 0
	for _, link := range doc.AllLinks() {
		page, err := resolve.Resolve(link.URL)
		if err != nil {
			skipped++
			s.logger.Debug("skipping link", "url", link.URL, "error", err)
			continue
		}
		fav := models.Favorite{URL: page.URL, DisplayTitle: page.DisplayTitle, DateAdded: now}
		if link.Title != "" {
			fav.DisplayTitle = link.Title
		}
		if !link.Created.IsZero() {
			fav.DateAdded = link.Created.UTC()
		}
		if prev, ok := incoming.Favorites[page.Key]; ok {
			fav = reconcile.MergeFavorite(prev, fav)
		}
		incoming.Favorites[page.Key] = fav
	}

	result, err := s.ImportSnapshot(ctx, incoming)
	if err != nil {
		return ImportResult{}, err
	}
	result.Skipped = skipped
	return result, nil
}

// ExportOPML writes favorites as an OPML link list in alphabetical order.
func (s *Service) ExportOPML(ctx context.Context, w io.Writer) error {
	entries, err := s.List(ctx, models.CollectionFavorites, reconcile.QueryOptions{Sort: reconcile.SortAlpha})
	if err != nil {
		return err
	}
	doc := opml.NewDocument("WikiFaves")
	doc.AddFolder(OPMLFolder)
	for _, e := range entries {
		if err := doc.AddLink(e.URL, e.DisplayTitle, OPMLFolder, e.DateAdded); err != nil {
			s.logger.Debug("skipping duplicate link", "key", e.Key, "error", err)
		}
	}
	return doc.Write(w)
}
