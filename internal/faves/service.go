// ABOUTME: Service runs every read-merge-write cycle against the record stores under one lock
// ABOUTME: Local writes are authoritative; the synced projection and relay are best effort

package faves

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/relay"
	"github.com/harper/wikifaves/internal/storage"
)

// DefaultSyncQuota is the byte budget for the synced projection.
const DefaultSyncQuota = 8192

// Service coordinates the engine with the local and synced record stores.
type Service struct {
	mu sync.Mutex

	local     storage.RecordStore
	synced    storage.RecordStore
	relay     relay.Relay
	now       func() time.Time
	locale    string
	syncQuota int
	sorts     map[models.Collection]reconcile.SortMethod
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSynced enables the synced scope.
func WithSynced(rs storage.RecordStore) Option {
	return func(s *Service) { s.synced = rs }
}

// WithRelay sets the notification relay.
func WithRelay(r relay.Relay) Option {
	return func(s *Service) {
		if r != nil {
			s.relay = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocale sets the default locale for alphabetical sorting.
func WithLocale(locale string) Option {
	return func(s *Service) { s.locale = locale }
}

// WithDefaultSort sets the ordering List uses for c when the caller does
// not ask for one.
func WithDefaultSort(c models.Collection, m reconcile.SortMethod) Option {
	return func(s *Service) {
		if m != "" {
			s.sorts[c] = m
		}
	}
}

// WithSyncQuota sets the projection byte budget. Zero disables the cap.
func WithSyncQuota(bytes int) Option {
	return func(s *Service) { s.syncQuota = bytes }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service over the local record store.
func New(local storage.RecordStore, opts ...Option) *Service {
	s := &Service{
		local:     local,
		relay:     relay.Discard{},
		now:       time.Now,
		locale:    "en",
		syncQuota: DefaultSyncQuota,
		sorts:     map[models.Collection]reconcile.SortMethod{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncEnabled reports whether a synced scope is configured.
func (s *Service) SyncEnabled() bool { return s.synced != nil }

// Outcome reports what a mutating operation did.
type Outcome struct {
	Changed  bool
	NotFound bool
	Event    *models.Event

	// SyncErr is set when the local write succeeded but the synced
	// projection could not be written. The projection is stale until the
	// next successful write or RebuildSync.
	SyncErr    error
	Compaction reconcile.Compaction

	// Resynced is set by PullSync when the projection was stale and was
	// rewritten from local favorites instead of being pulled.
	Resynced bool
}

// timestamp returns the service clock in UTC at millisecond precision.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// mutate runs one locked read-modify-write cycle.
func (s *Service) mutate(ctx context.Context, op string, fn func(models.Snapshot, time.Time) (reconcile.Result, error)) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := storage.LoadSnapshot(ctx, s.local)
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: load: %w", op, err)
	}

	res, err := fn(snap, s.timestamp())
	if errors.Is(err, reconcile.ErrNotFound) {
		s.logger.Info("no-op", "op", op, "reason", err.Error())
		return Outcome{NotFound: true}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.commit(ctx, op, res)
}

// commit writes touched collections in one local Set, then the synced
// projection, then notifies observers. Caller holds s.mu.
func (s *Service) commit(ctx context.Context, op string, res reconcile.Result) (Outcome, error) {
	if !res.Changed {
		return Outcome{}, nil
	}
	if err := storage.SaveCollections(ctx, s.local, res.Snapshot, res.Touched...); err != nil {
		return Outcome{}, fmt.Errorf("%s: save: %w", op, err)
	}

	out := Outcome{Changed: true, Event: res.Event}
	if res.FavoritesChanged && s.synced != nil {
		out.Compaction, out.SyncErr = s.pushSync(ctx, res.Snapshot.Favorites)
		if out.SyncErr != nil {
			s.logger.Warn("synced projection is stale", "op", op, "error", out.SyncErr)
			s.markStale(ctx, out.SyncErr)
		} else {
			s.clearStale(ctx)
		}
	}
	if res.Event != nil {
		s.relay.Notify(ctx, relay.FromEvent(*res.Event))
	}
	s.logger.Debug("committed", "op", op, "collections", res.Touched)
	return out, nil
}

func (s *Service) pushSync(ctx context.Context, favs models.Favorites) (reconcile.Compaction, error) {
	data, level, err := reconcile.Project(favs, s.syncQuota)
	if err != nil {
		return level, fmt.Errorf("%w: %w", storage.ErrQuotaExceeded, err)
	}
	if level != reconcile.CompactNone {
		s.logger.Info("synced projection compacted", "level", level.String(), "favorites", len(favs))
	}
	if err := s.synced.Set(ctx, map[string][]byte{storage.KeySyncedFavorites: data}); err != nil {
		return level, err
	}
	return level, nil
}

// markStale records in the local scope that the projection missed a write.
// Caller holds s.mu.
func (s *Service) markStale(ctx context.Context, cause error) {
	st := storage.SyncState{Stale: true, Since: s.timestamp(), Reason: cause.Error()}
	if err := storage.SaveSyncState(ctx, s.local, st); err != nil {
		s.logger.Warn("could not record stale sync state", "error", err)
	}
}

// clearStale drops the stale marker after a successful push. Caller holds s.mu.
func (s *Service) clearStale(ctx context.Context) {
	st, err := storage.LoadSyncState(ctx, s.local)
	if err != nil || !st.Stale {
		return
	}
	if err := storage.SaveSyncState(ctx, s.local, storage.SyncState{}); err != nil {
		s.logger.Warn("could not clear stale sync state", "error", err)
	}
}

// Toggle flips the favorite state of page.
func (s *Service) Toggle(ctx context.Context, page models.Page) (Outcome, error) {
	return s.mutate(ctx, "toggle", func(snap models.Snapshot, now time.Time) (reconcile.Result, error) {
		return reconcile.ToggleFavorite(snap, page, now), nil
	})
}

// Visit records a page view. Reloads of tracked pages are ignored.
func (s *Service) Visit(ctx context.Context, page models.Page, isReload bool) (Outcome, error) {
	return s.mutate(ctx, "visit", func(snap models.Snapshot, now time.Time) (reconcile.Result, error) {
		return reconcile.RecordVisit(snap, page, now, isReload), nil
	})
}

// Trash soft-deletes key from source.
func (s *Service) Trash(ctx context.Context, key models.PageKey, source models.SourceType) (Outcome, error) {
	return s.mutate(ctx, "trash", func(snap models.Snapshot, now time.Time) (reconcile.Result, error) {
		return reconcile.MoveToTrash(snap, key, source, now)
	})
}

// Restore moves key out of the trash, merging with any newer record.
func (s *Service) Restore(ctx context.Context, key models.PageKey) (Outcome, error) {
	return s.mutate(ctx, "restore", func(snap models.Snapshot, _ time.Time) (reconcile.Result, error) {
		return reconcile.RestoreFromTrash(snap, key)
	})
}

// Purge permanently deletes key from the trash.
func (s *Service) Purge(ctx context.Context, key models.PageKey) (Outcome, error) {
	return s.mutate(ctx, "purge", func(snap models.Snapshot, _ time.Time) (reconcile.Result, error) {
		return reconcile.DeleteFromTrash(snap, key)
	})
}

// EmptyTrash permanently deletes every trash entry and returns how many were removed.
func (s *Service) EmptyTrash(ctx context.Context) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, "empty-trash", func(snap models.Snapshot, _ time.Time) (reconcile.Result, error) {
		removed = len(snap.Trash)
		return reconcile.EmptyTrash(snap), nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.compact(ctx)
	}
	return removed, nil
}

// Wipe clears the local scope and, when configured, the synced scope.
func (s *Service) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.local.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear local: %w", err))
	}
	if s.synced != nil {
		if err := s.synced.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("clear synced: %w", err))
		}
	}
	if len(errs) == 0 {
		s.logger.Info("all data wiped")
		s.compact(ctx)
	}
	return errors.Join(errs...)
}

// compact reclaims space in the local backend after bulk deletes. Failure
// only costs disk space, so it is logged and not returned.
func (s *Service) compact(ctx context.Context) {
	c, ok := s.local.(storage.Compactor)
	if !ok {
		return
	}
	if err := c.Compact(ctx); err != nil {
		s.logger.Warn("local compaction failed", "error", err)
		return
	}
	s.logger.Debug("local store compacted")
}

// HandleRelay serves inbound relay requests from observers.
func (s *Service) HandleRelay(ctx context.Context, msg relay.Message) {
	if msg.Action != models.ActionToggleFavorite || msg.Data == nil || msg.Data.PageKey == "" {
		return
	}
	page, err := s.pageFor(ctx, msg.Data.PageKey)
	if err != nil {
		s.logger.Warn("relay toggle lookup failed", "key", msg.Data.PageKey, "error", err)
		return
	}
	if _, err := s.Toggle(ctx, page); err != nil {
		s.logger.Warn("relay toggle failed", "key", msg.Data.PageKey, "error", err)
	}
}
