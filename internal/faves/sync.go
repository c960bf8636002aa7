// ABOUTME: Synced-scope maintenance: rebuilding the projection, pulling remote
// ABOUTME: favorites into the local scope and reporting drift between the two

package faves

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
	"github.com/harper/wikifaves/internal/storage"
)

// ErrSyncDisabled is returned by sync operations when no synced scope is configured.
var ErrSyncDisabled = errors.New("sync is not configured")

// SyncStatus compares the local favorites with the synced projection.
type SyncStatus struct {
	Local       int `json:"local"`
	Remote      int `json:"remote"`
	OnlyLocal   int `json:"onlyLocal"`
	OnlyRemote  int `json:"onlyRemote"`
	ProjectSize int `json:"projectSize"`

	// Stale means a synced write failed and no push has succeeded since.
	Stale      bool      `json:"stale"`
	StaleSince time.Time `json:"staleSince,omitzero"`

	// LocalWritten is when local favorites were last persisted, if the
	// backend records it.
	LocalWritten time.Time `json:"localWritten,omitzero"`
}

// InSync reports whether both scopes hold the same set of keys.
func (st SyncStatus) InSync() bool { return st.OnlyLocal == 0 && st.OnlyRemote == 0 }

// RebuildSync rewrites the synced projection from local favorites. It is the
// recovery path after a failed synced write.
func (s *Service) RebuildSync(ctx context.Context) (reconcile.Compaction, error) {
	if s.synced == nil {
		return reconcile.CompactNone, ErrSyncDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := storage.LoadSnapshot(ctx, s.local)
	if err != nil {
		return reconcile.CompactNone, fmt.Errorf("rebuild sync: %w", err)
	}
	level, err := s.pushSync(ctx, snap.Favorites)
	if err != nil {
		s.markStale(ctx, err)
		return level, fmt.Errorf("rebuild sync: %w", err)
	}
	s.clearStale(ctx)
	s.logger.Info("synced projection rebuilt", "favorites", len(snap.Favorites), "level", level.String())
	return level, nil
}

// PullSync merges the synced projection into local favorites and returns how
// many favorites were added or updated. Keys in the local trash are skipped.
// When a previous synced write failed the projection may still hold favorites
// removed locally, so it is rebuilt from local state instead of pulled.
func (s *Service) PullSync(ctx context.Context) (int, Outcome, error) {
	if s.synced == nil {
		return 0, Outcome{}, ErrSyncDisabled
	}
	st, err := s.syncState(ctx)
	if err != nil {
		return 0, Outcome{}, fmt.Errorf("pull sync: %w", err)
	}
	if st.Stale {
		s.logger.Warn("synced projection is stale, pushing local favorites instead of pulling", "since", st.Since, "reason", st.Reason)
		level, err := s.RebuildSync(ctx)
		if err != nil {
			return 0, Outcome{}, fmt.Errorf("pull sync: %w", err)
		}
		return 0, Outcome{Compaction: level, Resynced: true}, nil
	}

	remote, err := s.remoteFavorites(ctx)
	if err != nil {
		return 0, Outcome{}, err
	}

	var applied int
	out, err := s.mutate(ctx, "pull-sync", func(snap models.Snapshot, _ time.Time) (reconcile.Result, error) {
		res, n := reconcile.MergeSynced(snap, remote)
		applied = n
		return res, nil
	})
	if err != nil {
		return 0, Outcome{}, err
	}
	return applied, out, nil
}

// Status reports drift between local favorites and the synced projection.
func (s *Service) Status(ctx context.Context) (SyncStatus, error) {
	if s.synced == nil {
		return SyncStatus{}, ErrSyncDisabled
	}
	remote, err := s.remoteFavorites(ctx)
	if err != nil {
		return SyncStatus{}, err
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return SyncStatus{}, err
	}

	state, err := s.syncState(ctx)
	if err != nil {
		return SyncStatus{}, err
	}

	st := SyncStatus{Local: len(snap.Favorites), Remote: len(remote), Stale: state.Stale, StaleSince: state.Since}
	for key := range snap.Favorites {
		if _, ok := remote[key]; !ok {
			st.OnlyLocal++
		}
	}
	for key := range remote {
		if _, ok := snap.Favorites[key]; !ok {
			st.OnlyRemote++
		}
	}
	if data, _, err := reconcile.Project(snap.Favorites, 0); err == nil {
		st.ProjectSize = len(data)
	}
	if wt, ok := s.local.(storage.WriteTimes); ok {
		if at, err := wt.UpdatedAt(ctx, storage.KeyFavorites); err == nil {
			st.LocalWritten = at
		}
	}
	return st, nil
}

func (s *Service) syncState(ctx context.Context) (storage.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.LoadSyncState(ctx, s.local)
}

func (s *Service) remoteFavorites(ctx context.Context) (models.Favorites, error) {
	raw, err := s.synced.Get(ctx, storage.KeySyncedFavorites)
	if err != nil {
		return nil, fmt.Errorf("read synced: %w", err)
	}
	favs, err := reconcile.ParseProjection(raw[storage.KeySyncedFavorites], resolve.Lookup)
	if err != nil {
		return nil, fmt.Errorf("read synced: %w: %w", storage.ErrBackingStore, err)
	}
	return favs, nil
}
