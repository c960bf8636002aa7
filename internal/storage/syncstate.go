// ABOUTME: Local marker recording that the synced projection missed a write
// ABOUTME: Stored beside the collections so it survives restarts until a push succeeds

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SyncState is the local view of the synced projection's freshness.
type SyncState struct {
	Stale  bool      `json:"stale"`
	Since  time.Time `json:"since,omitzero"`
	Reason string    `json:"reason,omitempty"`
}

// LoadSyncState reads the marker. A missing marker means not stale.
func LoadSyncState(ctx context.Context, rs RecordStore) (SyncState, error) {
	raw, err := rs.Get(ctx, KeySyncState)
	if err != nil {
		return SyncState{}, err
	}
	var st SyncState
	data, ok := raw[KeySyncState]
	if !ok || len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return SyncState{}, fmt.Errorf("%w: decode %s: %w", ErrBackingStore, KeySyncState, err)
	}
	return st, nil
}

// SaveSyncState writes the marker.
func SaveSyncState(ctx context.Context, rs RecordStore, st SyncState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeySyncState, err)
	}
	return rs.Set(ctx, map[string][]byte{KeySyncState: data})
}
