// ABOUTME: Data migration between wikifaves storage backends
// ABOUTME: Copies the three collections from source to destination in one write

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated records.
type MigrateSummary struct {
	Favorites int
	History   int
	Trash     int
}

// MigrateData copies favorites, history and trash from src to dst. The
// collections are decoded first so a corrupt source never reaches dst.
func MigrateData(ctx context.Context, src, dst RecordStore) (*MigrateSummary, error) {
	snap, err := LoadSnapshot(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if err := SaveCollections(ctx, dst, snap); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Favorites: len(snap.Favorites),
		History:   len(snap.History),
		Trash:     len(snap.Trash),
	}, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}

// HasData reports whether any local collection key is present in rs.
func HasData(ctx context.Context, rs RecordStore) (bool, error) {
	raw, err := rs.Get(ctx, LocalKeys...)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}
