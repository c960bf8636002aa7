// ABOUTME: Export and import commands for backups and migration between browsers
// ABOUTME: JSON datasets carry everything; OPML carries favorites only

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/storage"
	"github.com/harper/wikifaves/internal/transfer"
)

const (
	formatJSON = "json"
	formatOPML = "opml"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export favorites, history and trash",
	Long: `Export all records as JSON, or favorites as OPML.

Examples:
  wikifaves export > backup.json
  wikifaves export -o wikifaves.json
  wikifaves export --format opml -o favorites.opml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if format == "" {
			format = formatFromPath(output)
		}

		var buf bytes.Buffer
		switch format {
		case formatJSON:
			if err := svc.Export(cmd.Context(), &buf); err != nil {
				return err
			}
		case formatOPML:
			if err := svc.ExportOPML(cmd.Context(), &buf); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q (want json or opml)", format)
		}

		if output == "" || output == "-" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := storage.AtomicWrite(output, buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write %s: %w", output, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Merge an export file into local records",
	Long: `Merge a JSON export or an OPML file into local records.

Existing favorites keep their title; visits are combined; trashed
records are skipped when the page is live again. A file that fails
validation changes nothing.

Examples:
  wikifaves import wikifaves.json
  wikifaves import bookmarks.opml
  cat backup.json | wikifaves import -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path := args[0]
		if format == "" {
			format = formatFromPath(path)
		}

		var r io.Reader
		if path == "-" {
			r = cmd.InOrStdin()
		} else {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()
			r = f
		}

		var (
			res faves.ImportResult
			err error
		)
		switch format {
		case formatJSON:
			res, err = svc.Import(cmd.Context(), r)
		case formatOPML:
			res, err = svc.ImportOPML(cmd.Context(), r)
		default:
			return fmt.Errorf("unknown format %q (want json or opml)", format)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%s Imported %d records\n", green("✓"), res.Total())
		fmt.Fprintf(w, "  Favorites: %d added, %d merged\n", res.FavoritesAdded, res.FavoritesMerged)
		fmt.Fprintf(w, "  History:   %d added, %d merged\n", res.HistoryAdded, res.HistoryMerged)
		fmt.Fprintf(w, "  Trash:     %d added, %d skipped\n", res.TrashAdded, res.TrashSkipped)
		if res.Skipped > 0 {
			fmt.Fprintf(w, "  %s\n", faint(fmt.Sprintf("%d links were not Wikipedia articles", res.Skipped)))
		}
		reportSync(cmd, res.Outcome)
		return nil
	},
}

// formatFromPath picks opml for .opml and .xml files, json otherwise.
func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".opml", ".xml":
		return formatOPML
	}
	return formatJSON
}

func init() {
	exportCmd.Flags().StringP("format", "f", "", "output format: json or opml (default from file extension, else json)")
	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout (default name "+transfer.Filename+")")
	importCmd.Flags().StringP("format", "f", "", "input format: json or opml (default from file extension)")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
