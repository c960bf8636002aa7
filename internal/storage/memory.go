// ABOUTME: In-memory RecordStore for tests and --backend memory dry runs
// ABOUTME: Supports an optional byte quota and injected write failures

package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore implements RecordStore in memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]byte
	quota   int
	failSet error
	sets    int
}

// NewMemoryStore returns an empty store with no quota.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

// WithQuota caps the total stored bytes (keys plus values). Zero disables the cap.
func (m *MemoryStore) WithQuota(bytes int) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quota = bytes
	return m
}

// FailSets makes every subsequent Set return err. Pass nil to stop failing.
func (m *MemoryStore) FailSets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

// SetCalls reports how many Set calls succeeded.
func (m *MemoryStore) SetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Get returns copies of the values stored under keys.
func (m *MemoryStore) Get(_ context.Context, keys ...string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.records[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set applies all values or none.
func (m *MemoryStore) Set(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSet != nil {
		return backendErr("set", m.failSet)
	}
	if m.quota > 0 {
		total := 0
		for k, v := range m.records {
			if _, replaced := values[k]; !replaced {
				total += len(k) + len(v)
			}
		}
		for k, v := range values {
			total += len(k) + len(v)
		}
		if total > m.quota {
			return fmt.Errorf("%w: %d bytes over %d", ErrQuotaExceeded, total, m.quota)
		}
	}
	for k, v := range values {
		m.records[k] = append([]byte(nil), v...)
	}
	m.sets++
	return nil
}

// Clear removes every key.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = map[string][]byte{}
	return nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

var _ RecordStore = (*MemoryStore)(nil)
