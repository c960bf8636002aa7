// ABOUTME: Charm KV client implementing the synced-scope RecordStore
// ABOUTME: Short-lived connections via the Do API, sync after writes and a byte quota

package charm

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"

	"github.com/harper/wikifaves/internal/storage"
)

const (
	// Default Charm server
	DefaultCharmHost = "charm.2389.dev"

	// DBName is the name of the charm kv database for wikifaves.
	DBName = "wikifaves"

	// DefaultQuota caps the total bytes kept in the synced scope.
	DefaultQuota = 102400

	// MaxItemBytes caps a single key plus its value.
	MaxItemBytes = 8192
)

// Client holds configuration for KV operations. It does NOT hold a
// persistent connection: each operation opens the database, performs the
// operation, and closes it.
type Client struct {
	dbName    string
	autoSync  bool
	quota     int
	itemLimit int
}

// Option configures a Client.
type Option func(*Client)

// WithQuota sets the total byte quota. Zero or negative disables it.
func WithQuota(bytes int) Option {
	return func(c *Client) { c.quota = bytes }
}

// WithItemLimit sets the per-key byte limit. Zero or negative disables it.
func WithItemLimit(bytes int) Option {
	return func(c *Client) { c.itemLimit = bytes }
}

// WithAutoSync controls whether writes trigger a cloud sync.
func WithAutoSync(enabled bool) Option {
	return func(c *Client) { c.autoSync = enabled }
}

// NewClient creates a new client. host overrides the Charm server unless
// CHARM_HOST is already set in the environment.
func NewClient(host string, opts ...Option) (*Client, error) {
	if os.Getenv("CHARM_HOST") == "" {
		if host == "" {
			host = DefaultCharmHost
		}
		os.Setenv("CHARM_HOST", host)
	}

	c := &Client{
		dbName:    DBName,
		autoSync:  true,
		quota:     DefaultQuota,
		itemLimit: MaxItemBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DoReadOnly executes a function with read-only database access.
func (c *Client) DoReadOnly(fn func(k *kv.KV) error) error {
	return kv.DoReadOnly(c.dbName, fn)
}

// Do executes a function with write access to the database.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.autoSync = enabled
}

// Get returns the values stored under keys. Missing keys are omitted.
func (c *Client) Get(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	err := c.DoReadOnly(func(k *kv.KV) error {
		present, err := keySet(k)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if !present[key] {
				continue
			}
			data, err := k.Get([]byte(key))
			if err != nil {
				return fmt.Errorf("get %q: %w", key, err)
			}
			out[key] = data
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: charm get: %w", storage.ErrBackingStore, err)
	}
	return out, nil
}

// Set writes values after checking the item and total quotas.
func (c *Client) Set(ctx context.Context, values map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for key, v := range values {
		if c.itemLimit > 0 && len(key)+len(v) > c.itemLimit {
			return fmt.Errorf("%w: %q is %d bytes, limit %d", storage.ErrQuotaExceeded, key, len(key)+len(v), c.itemLimit)
		}
	}

	var quotaErr error
	err := c.Do(func(k *kv.KV) error {
		if c.quota > 0 {
			total, err := c.sizeAfter(k, values)
			if err != nil {
				return err
			}
			if total > c.quota {
				quotaErr = fmt.Errorf("%w: %d bytes over %d", storage.ErrQuotaExceeded, total, c.quota)
				return quotaErr
			}
		}
		for key, v := range values {
			if err := k.Set([]byte(key), v); err != nil {
				return fmt.Errorf("set %q: %w", key, err)
			}
		}
		return nil
	})
	if quotaErr != nil {
		return quotaErr
	}
	if err != nil {
		return fmt.Errorf("%w: charm set: %w", storage.ErrBackingStore, err)
	}
	return nil
}

func (c *Client) sizeAfter(k *kv.KV, values map[string][]byte) (int, error) {
	keys, err := k.Keys()
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	total := 0
	for _, key := range keys {
		if _, replaced := values[string(key)]; replaced {
			continue
		}
		data, err := k.Get(key)
		if err != nil {
			continue
		}
		total += len(key) + len(data)
	}
	for key, v := range values {
		total += len(key) + len(v)
	}
	return total, nil
}

// Clear deletes every key in the database.
func (c *Client) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := c.Do(func(k *kv.KV) error {
		keys, err := k.Keys()
		if err != nil {
			return fmt.Errorf("list keys: %w", err)
		}
		for _, key := range keys {
			if err := k.Delete(key); err != nil {
				return fmt.Errorf("delete %q: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: charm clear: %w", storage.ErrBackingStore, err)
	}
	return nil
}

func keySet(k *kv.KV) (map[string]bool, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		set[string(key)] = true
	}
	return set, nil
}

// Usage returns the bytes currently stored and the configured quota.
func (c *Client) Usage(ctx context.Context) (used, quota int, err error) {
	err = c.DoReadOnly(func(k *kv.KV) error {
		used, err = c.sizeAfter(k, nil)
		return err
	})
	return used, c.quota, err
}

// Sync manually triggers a sync with the Charm server.
func (c *Client) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// Reset deletes the local database and re-downloads it from the cloud.
func (c *Client) Reset() error {
	return kv.Reset(c.dbName)
}

// RepairReport lists the steps a repair completed.
type RepairReport struct {
	WalCheckpointed bool
	ShmRemoved      bool
	IntegrityOK     bool
	Vacuumed        bool
}

// Repair checkpoints, checks and vacuums the local database. force attempts
// REINDEX recovery when corruption is found.
func (c *Client) Repair(force bool) (RepairReport, error) {
	result, err := kv.Repair(c.dbName, force)
	return RepairReport{
		WalCheckpointed: result.WalCheckpointed,
		ShmRemoved:      result.ShmRemoved,
		IntegrityOK:     result.IntegrityOK,
		Vacuumed:        result.Vacuumed,
	}, err
}

// WipeReport counts what a wipe removed.
type WipeReport struct {
	CloudBackupsDeleted int
	LocalFilesDeleted   int
}

// Wipe permanently deletes local and cloud data for the database.
func (c *Client) Wipe() (WipeReport, error) {
	result, err := kv.Wipe(c.dbName)
	if err != nil {
		return WipeReport{}, err
	}
	return WipeReport{
		CloudBackupsDeleted: int(result.CloudBackupsDeleted),
		LocalFilesDeleted:   int(result.LocalFilesDeleted),
	}, nil
}

// ID returns the user's Charm ID for status display.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", err
	}
	return cc.ID()
}

// Close is a no-op; connections close after each operation.
func (c *Client) Close() error {
	return nil
}

// NewTestClientWithDBName creates a Client for testing with a custom database name.
// Use this when you need isolated test databases.
func NewTestClientWithDBName(dbName string, autoSync bool, opts ...Option) *Client {
	c := &Client{
		dbName:    dbName,
		autoSync:  autoSync,
		quota:     DefaultQuota,
		itemLimit: MaxItemBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ storage.RecordStore = (*Client)(nil)
