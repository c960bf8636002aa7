// ABOUTME: Migration command for copying wikifaves records between storage backends
// ABOUTME: Supports sqlite and file (YAML) targets with a non-empty directory check

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate records between storage backends",
	Long: `Copy favorites, history and trash from the configured backend to another one.

Does NOT update the config file; verify the migration was successful
then update config.json or run 'wikifaves setup'.

Examples:
  wikifaves migrate --to file
  wikifaves migrate --to sqlite --target-dir ~/wikifaves-sqlite
  wikifaves migrate --to file --force`,
	Annotations: map[string]string{skipStoreAnnotation: "true"},
	RunE:        runMigrate,
}

var (
	migrateTo      string
	migrateDataDir string
	migrateForce   bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite or file)")
	migrateCmd.Flags().StringVar(&migrateDataDir, "target-dir", "", "target data directory (defaults to current data_dir)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "allow a target that already holds records")
	_ = migrateCmd.MarkFlagRequired("to")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	sourceBackend := cfg.GetBackend()
	targetBackend := migrateTo

	if targetBackend != storage.BackendSQLite && targetBackend != storage.BackendFile {
		return fmt.Errorf("invalid target backend %q: must be %q or %q", targetBackend, storage.BackendSQLite, storage.BackendFile)
	}
	if targetBackend == sourceBackend {
		return fmt.Errorf("target backend %q is the same as the current backend", targetBackend)
	}

	targetDataDir := cfg.GetDataDir()
	if migrateDataDir != "" {
		targetDataDir = config.ExpandPath(migrateDataDir)
	}

	// A different data dir must be empty; the same dir only needs an empty target store.
	if targetDataDir != cfg.GetDataDir() {
		nonEmpty, err := storage.IsDirNonEmpty(targetDataDir)
		if err != nil {
			return fmt.Errorf("check target directory: %w", err)
		}
		if nonEmpty && !migrateForce {
			return fmt.Errorf("target directory %q is not empty; use --force to overwrite", targetDataDir)
		}
	}

	src, err := cfg.OpenStorage()
	if err != nil {
		return fmt.Errorf("open source storage (%s): %w", sourceBackend, err)
	}
	defer src.Close()

	target := &config.Config{Backend: targetBackend, DataDir: targetDataDir}
	dst, err := target.OpenStorage()
	if err != nil {
		return fmt.Errorf("open target storage (%s): %w", targetBackend, err)
	}
	defer dst.Close()

	if !migrateForce {
		has, err := storage.HasData(cmd.Context(), dst)
		if err != nil {
			return fmt.Errorf("check target storage: %w", err)
		}
		if has {
			return fmt.Errorf("target %s store in %q already has records; use --force to overwrite", targetBackend, targetDataDir)
		}
	}

	fmt.Fprintln(w, color.YellowString("Migrating wikifaves records:"))
	fmt.Fprintf(w, "  Source:  %s (%s)\n", sourceBackend, cfg.GetDataDir())
	fmt.Fprintf(w, "  Target:  %s (%s)\n", targetBackend, targetDataDir)
	fmt.Fprintln(w)

	summary, err := storage.MigrateData(cmd.Context(), src, dst)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(w, color.GreenString("Migration complete!"))
	fmt.Fprintf(w, "  Favorites: %d\n", summary.Favorites)
	fmt.Fprintf(w, "  History:   %d\n", summary.History)
	fmt.Fprintf(w, "  Trash:     %d\n", summary.Trash)
	fmt.Fprintln(w)
	fmt.Fprintln(w, color.YellowString("Note: config.json was NOT updated. To switch to the new backend, edit:"))
	fmt.Fprintf(w, "  %s\n", config.GetConfigPath())
	fmt.Fprintf(w, "  Set \"backend\": %q", targetBackend)
	if migrateDataDir != "" {
		fmt.Fprintf(w, " and \"data_dir\": %q", migrateDataDir)
	}
	fmt.Fprintln(w)

	return nil
}
