// ABOUTME: RecordStore interface: the opaque key-value contract every backend implements
// ABOUTME: Defines logical collection keys and the backend failure sentinels

package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Logical keys. The local scope holds all three collections; the synced
// scope holds only KeySyncedFavorites.
const (
	KeyFavorites       = "favorites"
	KeyHistory         = "history"
	KeyTrash           = "trash"
	KeySyncedFavorites = "syncedFavorites"

	// KeySyncState lives in the local scope and records whether the synced
	// projection is known to lag behind local favorites.
	KeySyncState = "syncState"
)

// LocalKeys lists the keys of the local scope.
var LocalKeys = []string{KeyFavorites, KeyHistory, KeyTrash}

var (
	// ErrBackingStore wraps every I/O failure from a backend.
	ErrBackingStore = errors.New("backing store failure")

	// ErrQuotaExceeded means a write would exceed the backend's size limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// RecordStore is an asynchronous-by-contract key-value backend. Get omits
// missing keys from its result. Set writes every key of one call together
// where the backend can; callers must not rely on atomicity across calls.
type RecordStore interface {
	// Get returns the stored value for each present key.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)

	// Set writes all entries of values.
	Set(ctx context.Context, values map[string][]byte) error

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Compactor is implemented by backends that can reclaim space after deletes.
type Compactor interface {
	Compact(ctx context.Context) error
}

// WriteTimes is implemented by backends that remember when a key was last
// written. A missing key reports the zero time.
type WriteTimes interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Filenames used inside the data directory.
const (
	SQLiteFilename = "wikifaves.db"
	FileFilename   = "records.yaml"
)

// Open creates the RecordStore for backend rooted at dataDir.
func Open(backend, dataDir string) (RecordStore, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(filepath.Join(dataDir, SQLiteFilename))
	case BackendFile:
		return NewFileStore(filepath.Join(dataDir, FileFilename))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackingStore, op, err)
}
