// ABOUTME: Tests for loading and saving collections through a RecordStore
// ABOUTME: Verifies partial writes only touch named keys and corrupt data is reported

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harper/wikifaves/internal/models"
)

func sampleSnapshot() models.Snapshot {
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return models.Snapshot{
		Favorites: models.Favorites{"Go_(programming_language)": {URL: "https://en.wikipedia.org/wiki/Go_(programming_language)", DisplayTitle: "Go (programming language)", DateAdded: t0}},
		History: models.History{"Gopher": {
			URL: "https://en.wikipedia.org/wiki/Gopher", DisplayTitle: "Gopher",
			VisitCount: 2, FirstVisit: t0, LastVisit: t0.Add(time.Hour), Visits: []time.Time{t0, t0.Add(time.Hour)},
		}},
		Trash: models.Trash{"Old": models.NewFavoriteTrash(models.Favorite{URL: "u", DisplayTitle: "Old", DateAdded: t0}, t0.Add(2*time.Hour))},
	}
}

func TestLoadSnapshot_Empty(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), NewMemoryStore())
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Favorites == nil || snap.History == nil || snap.Trash == nil {
		t.Error("expected non-nil empty collections")
	}
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	want := sampleSnapshot()

	if err := SaveCollections(ctx, store, want); err != nil {
		t.Fatalf("SaveCollections failed: %v", err)
	}
	if store.SetCalls() != 1 {
		t.Errorf("expected one Set call, got %d", store.SetCalls())
	}

	got, err := LoadSnapshot(ctx, store)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if len(got.Favorites) != 1 || len(got.History) != 1 || len(got.Trash) != 1 {
		t.Fatalf("unexpected sizes: %d %d %d", len(got.Favorites), len(got.History), len(got.Trash))
	}
	h := got.History["Gopher"]
	if h.VisitCount != 2 || len(h.Visits) != 2 {
		t.Errorf("history mismatch: %+v", h)
	}
	tr := got.Trash["Old"]
	if tr.Favorite == nil || tr.SourceType != models.SourceFavorites {
		t.Errorf("trash mismatch: %+v", tr)
	}
}

func TestSaveCollections_OnlyNamed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := SaveCollections(ctx, store, sampleSnapshot(), models.CollectionHistory); err != nil {
		t.Fatalf("SaveCollections failed: %v", err)
	}
	raw, _ := store.Get(ctx, LocalKeys...)
	if _, ok := raw[KeyHistory]; !ok {
		t.Error("history not written")
	}
	if _, ok := raw[KeyFavorites]; ok {
		t.Error("favorites written but not named")
	}
}

func TestLoadSnapshot_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, map[string][]byte{KeyHistory: []byte("{nope")})

	_, err := LoadSnapshot(ctx, store)
	if !errors.Is(err, ErrBackingStore) {
		t.Fatalf("expected ErrBackingStore, got %v", err)
	}
}
