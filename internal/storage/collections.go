// ABOUTME: Codec between RecordStore bytes and the three in-memory collections
// ABOUTME: Reads all collections in one Get and writes touched collections in one Set

package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harper/wikifaves/internal/models"
)

// LoadSnapshot reads favorites, history and trash. Missing keys load as empty collections.
func LoadSnapshot(ctx context.Context, rs RecordStore) (models.Snapshot, error) {
	raw, err := rs.Get(ctx, LocalKeys...)
	if err != nil {
		return models.Snapshot{}, err
	}

	snap := models.Snapshot{}.Normalize()
	if err := decodeInto(raw, KeyFavorites, &snap.Favorites); err != nil {
		return models.Snapshot{}, err
	}
	if err := decodeInto(raw, KeyHistory, &snap.History); err != nil {
		return models.Snapshot{}, err
	}
	if err := decodeInto(raw, KeyTrash, &snap.Trash); err != nil {
		return models.Snapshot{}, err
	}
	return snap.Normalize(), nil
}

func decodeInto(raw map[string][]byte, key string, dst interface{}) error {
	data, ok := raw[key]
	if !ok || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrBackingStore, key, err)
	}
	return nil
}

// EncodeCollections serializes the named collections of snap for one Set call.
func EncodeCollections(snap models.Snapshot, which ...models.Collection) (map[string][]byte, error) {
	snap = snap.Normalize()
	out := make(map[string][]byte, len(which))
	for _, c := range which {
		var v interface{}
		switch c {
		case models.CollectionFavorites:
			v = snap.Favorites
		case models.CollectionHistory:
			v = snap.History
		case models.CollectionTrash:
			v = snap.Trash
		default:
			return nil, fmt.Errorf("unknown collection %q", c)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", c, err)
		}
		out[string(c)] = data
	}
	return out, nil
}

// SaveCollections writes the named collections in a single Set. With no
// collections named it writes all three.
func SaveCollections(ctx context.Context, rs RecordStore, snap models.Snapshot, which ...models.Collection) error {
	if len(which) == 0 {
		which = models.Collections
	}
	values, err := EncodeCollections(snap, which...)
	if err != nil {
		return err
	}
	return rs.Set(ctx, values)
}
