// ABOUTME: File-backed RecordStore persisting all keys in one YAML document
// ABOUTME: Writes go to a temp file renamed into place so readers never see a partial write

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const fileFormatVersion = 1

// fileDocument is the on-disk YAML shape. Values are stored as text since
// every collection is JSON.
type fileDocument struct {
	Version   int               `yaml:"version"`
	UpdatedAt time.Time         `yaml:"updated_at"`
	Records   map[string]string `yaml:"records"`
}

// FileStore implements RecordStore over a single YAML file.
type FileStore struct {
	path string

	mu      sync.Mutex
	records map[string]string
	updated time.Time
}

// NewFileStore opens (or prepares to create) the YAML document at path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	fs := &FileStore{path: path, records: map[string]string{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, backendErr("read records file", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, backendErr("parse records file", err)
	}
	if doc.Version > fileFormatVersion {
		return nil, fmt.Errorf("records file version %d is newer than supported %d", doc.Version, fileFormatVersion)
	}
	for k, v := range doc.Records {
		fs.records[k] = v
	}
	fs.updated = doc.UpdatedAt
	return fs, nil
}

// UpdatedAt reports when the document was last written. Every key shares
// the document's timestamp.
func (f *FileStore) UpdatedAt(_ context.Context, key string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.records[key]; !ok {
		return time.Time{}, nil
	}
	return f.updated, nil
}

// Get returns the values stored under keys.
func (f *FileStore) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := f.records[k]; ok {
			out[k] = []byte(v)
		}
	}
	return out, nil
}

// Set applies values and rewrites the document. On write failure the
// in-memory state is left as it was before the call.
func (f *FileStore) Set(_ context.Context, values map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]string, len(f.records)+len(values))
	for k, v := range f.records {
		next[k] = v
	}
	for k, v := range values {
		next[k] = string(v)
	}
	written, err := f.flush(next)
	if err != nil {
		return err
	}
	f.records = next
	f.updated = written
	return nil
}

// Clear removes every key.
func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	written, err := f.flush(map[string]string{})
	if err != nil {
		return err
	}
	f.records = map[string]string{}
	f.updated = written
	return nil
}

// Close is a no-op; every Set is already durable.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) flush(records map[string]string) (time.Time, error) {
	doc := fileDocument{Version: fileFormatVersion, UpdatedAt: time.Now().UTC(), Records: records}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return time.Time{}, backendErr("encode records file", err)
	}
	if err := AtomicWrite(f.path, data); err != nil {
		return time.Time{}, backendErr("write records file", err)
	}
	return doc.UpdatedAt, nil
}

// AtomicWrite writes data to a temp file in the same directory and renames it over path.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

var (
	_ RecordStore = (*FileStore)(nil)
	_ WriteTimes  = (*FileStore)(nil)
)
