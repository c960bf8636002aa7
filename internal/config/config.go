// ABOUTME: Configuration management with storage backend and sync selection
// ABOUTME: Handles settings, preferences, and the record store factory functions

package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/wikifaves/internal/charm"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/storage"
)

// Config stores wikifaves configuration.
type Config struct {
	// Backend selects the local record store: "sqlite" (default), "file" or "memory".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local data.
	// SQLite puts wikifaves.db here; the file backend puts records.yaml here.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/wikifaves.
	DataDir string `json:"data_dir,omitempty"`

	// Sync enables the synced favorites projection on Charm.
	Sync bool `json:"sync,omitempty"`

	// CharmHost overrides the Charm server. Defaults to charm.DefaultCharmHost.
	CharmHost string `json:"charm_host,omitempty"`

	// SyncQuotaBytes caps the synced projection. Zero uses DefaultSyncQuotaBytes.
	SyncQuotaBytes int `json:"sync_quota_bytes,omitempty"`

	// Locale drives alphabetical sorting. Defaults to "en".
	Locale string `json:"locale,omitempty"`

	// ListenAddr is the HTTP API address for `wikifaves serve`.
	ListenAddr string `json:"listen_addr,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// FavoritesSort and HistorySort are the remembered list orderings used
	// when a listing does not ask for one.
	FavoritesSort string `json:"favorites_sort,omitempty"`
	HistorySort   string `json:"history_sort,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return storage.BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetCharmHost returns the Charm server host.
func (c *Config) GetCharmHost() string {
	if c.CharmHost == "" {
		return charm.DefaultCharmHost
	}
	return c.CharmHost
}

// GetSyncQuota returns the synced projection byte budget.
func (c *Config) GetSyncQuota() int {
	if c.SyncQuotaBytes <= 0 {
		return DefaultSyncQuotaBytes
	}
	return c.SyncQuotaBytes
}

// GetLocale returns the sort locale.
func (c *Config) GetLocale() string {
	if c.Locale == "" {
		return DefaultLocale
	}
	return c.Locale
}

// GetListenAddr returns the HTTP API listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetLogLevel returns the slog level for LogLevel. Unknown values fall back to info.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetSort returns the remembered ordering for collection. Trash has no
// remembered ordering and always yields "".
func (c *Config) GetSort(collection models.Collection) reconcile.SortMethod {
	var raw, fallback string
	switch collection {
	case models.CollectionFavorites:
		raw, fallback = c.FavoritesSort, DefaultFavoritesSort
	case models.CollectionHistory:
		raw, fallback = c.HistorySort, DefaultHistorySort
	default:
		return ""
	}
	method, err := reconcile.ParseSortMethod(raw)
	if err != nil || method == "" {
		return reconcile.SortMethod(fallback)
	}
	return method
}

// SetSort remembers method for collection.
func (c *Config) SetSort(collection models.Collection, method reconcile.SortMethod) error {
	switch collection {
	case models.CollectionFavorites:
		c.FavoritesSort = string(method)
	case models.CollectionHistory:
		c.HistorySort = string(method)
	default:
		return fmt.Errorf("%s has no saved sort order", collection)
	}
	return nil
}

// SaveSort persists method for collection in the config file without
// writing any command-line overrides applied to the running config.
func SaveSort(collection models.Collection, method reconcile.SortMethod) error {
	onDisk, err := Load()
	if err != nil {
		return err
	}
	if err := onDisk.SetSort(collection, method); err != nil {
		return err
	}
	return onDisk.Save()
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.GetBackend() {
	case storage.BackendSQLite, storage.BackendFile, storage.BackendMemory:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if c.SyncQuotaBytes < 0 {
		return fmt.Errorf("sync_quota_bytes must not be negative, got %d", c.SyncQuotaBytes)
	}
	for field, value := range map[string]string{"favorites_sort": c.FavoritesSort, "history_sort": c.HistorySort} {
		if _, err := reconcile.ParseSortMethod(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates the local RecordStore for the configured backend.
func (c *Config) OpenStorage() (storage.RecordStore, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	dataDir := c.GetDataDir()
	if c.GetBackend() != storage.BackendMemory {
		if err := os.MkdirAll(dataDir, DefaultDirPerms); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return storage.Open(c.GetBackend(), dataDir)
}

// OpenSynced creates the Charm-backed synced store, or nil when sync is off.
func (c *Config) OpenSynced() (*charm.Client, error) {
	if !c.Sync {
		return nil, nil
	}
	return charm.NewClient(c.GetCharmHost(), charm.WithQuota(charm.DefaultQuota))
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "wikifaves", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultFirstRunConfig()
			if saveErr := cfg.Save(); saveErr != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return storage.AtomicWrite(path, data)
}

// defaultDataDir returns the standard XDG data directory for wikifaves.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "wikifaves")
}

// defaultFirstRunConfig returns the default config for first-time runs.
// An existing records.yaml without a database keeps the file backend.
func defaultFirstRunConfig() *Config {
	dir := defaultDataDir()
	if _, err := os.Stat(filepath.Join(dir, storage.SQLiteFilename)); err == nil {
		return &Config{Backend: storage.BackendSQLite}
	}
	_, err := os.Stat(filepath.Join(dir, storage.FileFilename))
	switch {
	case err == nil:
		return &Config{Backend: storage.BackendFile}
	case !os.IsNotExist(err):
		fmt.Fprintf(os.Stderr, "warning: could not check for existing data: %v\n", err)
	}
	return &Config{Backend: storage.BackendSQLite}
}
