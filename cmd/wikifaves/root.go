// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config, installs the logger, and opens the record stores for subcommands

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/charm"
	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/storage"
)

// skipStoreAnnotation marks commands that manage config or stores themselves.
const skipStoreAnnotation = "wikifaves/skip-store"

var (
	backendFlag  string
	dataDirFlag  string
	logLevelFlag string
	noSyncFlag   bool

	cfg        *config.Config
	store      storage.RecordStore
	syncClient *charm.Client
	svc        *faves.Service
	svcOpts    []faves.Option
	logger     = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "wikifaves",
	Short: "Wikipedia favorites and reading history",
	Long: `
██╗    ██╗██╗██╗  ██╗██╗███████╗ █████╗ ██╗   ██╗███████╗███████╗
██║    ██║██║██║ ██╔╝██║██╔════╝██╔══██╗██║   ██║██╔════╝██╔════╝
██║ █╗ ██║██║█████╔╝ ██║█████╗  ███████║██║   ██║█████╗  ███████╗
██║███╗██║██║██╔═██╗ ██║██╔══╝  ██╔══██║╚██╗ ██╔╝██╔══╝  ╚════██║
╚███╔███╔╝██║██║  ██╗██║██║     ██║  ██║ ╚████╔╝ ███████╗███████║
 ╚══╝╚══╝ ╚═╝╚═╝  ╚═╝╚═╝╚═╝     ╚═╝  ╚═╝  ╚═══╝  ╚══════╝╚══════╝

Favorites, reading history, and a trash for Wikipedia pages.

Favorites sync across devices with Charm, history stays local, and
browser extensions talk to 'wikifaves serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		logger = newLogger(cmd.ErrOrStderr(), cfg.GetLogLevel())
		slog.SetDefault(logger)

		if cmd.Annotations[skipStoreAnnotation] == "true" {
			return nil
		}
		return openService()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeStores()
	},
}

// Execute runs the root command with a context canceled on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails
	if closeErr := closeStores(); err == nil {
		err = closeErr
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "local storage backend: sqlite, file or memory (default from config)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: ~/.local/share/wikifaves)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&noSyncFlag, "no-sync", false, "do not touch the synced favorites for this command")
}

// loadConfig reads config.json and applies flag overrides.
func loadConfig() error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if backendFlag != "" {
		loaded.Backend = backendFlag
	}
	if dataDirFlag != "" {
		loaded.DataDir = dataDirFlag
	}
	if logLevelFlag != "" {
		loaded.LogLevel = logLevelFlag
	}
	if noSyncFlag {
		loaded.Sync = false
	}
	cfg = loaded
	return cfg.Validate()
}

// newLogger returns a slog logger backed by the charm log handler.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Level:           log.Level(level),
		ReportTimestamp: level <= slog.LevelDebug,
		Prefix:          "wikifaves",
	})
	return slog.New(handler)
}

// openService opens the local store, the synced store when enabled, and
// builds the service over them.
func openService() error {
	var err error
	store, err = cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	svcOpts = []faves.Option{
		faves.WithLogger(logger),
		faves.WithLocale(cfg.GetLocale()),
		faves.WithSyncQuota(cfg.GetSyncQuota()),
		faves.WithDefaultSort(models.CollectionFavorites, cfg.GetSort(models.CollectionFavorites)),
		faves.WithDefaultSort(models.CollectionHistory, cfg.GetSort(models.CollectionHistory)),
	}
	if cfg.Sync {
		client, err := cfg.OpenSynced()
		if err != nil {
			logger.Warn("sync unavailable, using local data only", "error", err)
		} else if client != nil {
			syncClient = client
			svcOpts = append(svcOpts, faves.WithSynced(client))
		}
	}
	svc = faves.New(store, svcOpts...)
	return nil
}

func closeStores() error {
	var firstErr error
	if store != nil {
		if err := store.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close storage: %w", err)
		}
		store = nil
	}
	if syncClient != nil {
		if err := syncClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close sync client: %w", err)
		}
		syncClient = nil
	}
	svc = nil
	return firstErr
}

// requireSync returns an error explaining how to enable sync.
func requireSync() error {
	if svc != nil && svc.SyncEnabled() {
		return nil
	}
	return fmt.Errorf("%w: set \"sync\": true in %s or run 'wikifaves setup'", faves.ErrSyncDisabled, config.GetConfigPath())
}
