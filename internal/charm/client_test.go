// ABOUTME: Tests for the Charm KV synced store
// ABOUTME: Uses real local KV storage with sync disabled for fast, isolated tests

//go:build !race

package charm

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/harper/wikifaves/internal/storage"
)

// newTestClient creates a fresh client for testing with auto-sync disabled.
// Each call creates a new database with unique name to isolate tests.
func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()

	dbName := "wikifaves-test-" + strings.ReplaceAll(t.Name(), "/", "-")

	tmpDir, err := os.MkdirTemp("", "charm-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	// Set data dir for charm to use temp dir
	os.Setenv("CHARM_DATA_DIR", tmpDir)
	t.Cleanup(func() {
		os.Unsetenv("CHARM_DATA_DIR")
	})

	return NewTestClientWithDBName(dbName, false, opts...)
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	got, err := c.Get(ctx, storage.KeySyncedFavorites)
	if err != nil {
		t.Fatalf("Get on empty db failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no keys, got %d", len(got))
	}

	payload := []byte(`{"X":{"dateAdded":"2024-01-01T00:00:00Z"}}`)
	if err := c.Set(ctx, map[string][]byte{storage.KeySyncedFavorites: payload}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err = c.Get(ctx, storage.KeySyncedFavorites, "missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got[storage.KeySyncedFavorites]) != string(payload) {
		t.Errorf("got %q, want %q", got[storage.KeySyncedFavorites], payload)
	}
	if _, ok := got["missing"]; ok {
		t.Error("missing key should be absent")
	}
}

func TestSetRejectsOversizedItem(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, WithItemLimit(64))

	err := c.Set(ctx, map[string][]byte{storage.KeySyncedFavorites: make([]byte, 128)})
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestSetRejectsOverTotalQuota(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, WithQuota(100), WithItemLimit(0))

	if err := c.Set(ctx, map[string][]byte{"a": make([]byte, 60)}); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	err := c.Set(ctx, map[string][]byte{"b": make([]byte, 60)})
	if !errors.Is(err, storage.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}

	// Replacing an existing key only counts the new value.
	if err := c.Set(ctx, map[string][]byte{"a": make([]byte, 90)}); err != nil {
		t.Errorf("replacing key should fit quota: %v", err)
	}

	used, quota, err := c.Usage(ctx)
	if err != nil {
		t.Fatalf("Usage failed: %v", err)
	}
	if used != 91 || quota != 100 {
		t.Errorf("Usage = %d/%d, want 91/100", used, quota)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	if err := c.Set(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, _ := c.Get(ctx, "a", "b")
	if len(got) != 0 {
		t.Errorf("expected empty db after Clear, got %d keys", len(got))
	}
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Get(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get: expected context.Canceled, got %v", err)
	}
	if err := c.Set(ctx, map[string][]byte{"a": nil}); !errors.Is(err, context.Canceled) {
		t.Errorf("Set: expected context.Canceled, got %v", err)
	}
}
