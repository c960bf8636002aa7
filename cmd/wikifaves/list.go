// ABOUTME: List command for favorites, history and trash
// ABOUTME: Supports remembered sort methods, --since periods, limits and JSON output

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/timeutil"
)

var listCmd = &cobra.Command{
	Use:       "list [favorites|history|trash]",
	Aliases:   []string{"ls", "l"},
	Short:     "List favorites, history or trash",
	Long:      "List a collection, favorites by default, with optional sorting and date filters",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"favorites", "history", "trash"},
	RunE: func(cmd *cobra.Command, args []string) error {
		sortFlag, _ := cmd.Flags().GetString("sort")
		since, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")

		collection := models.CollectionFavorites
		if len(args) == 1 {
			c, err := models.ParseCollection(args[0])
			if err != nil {
				return err
			}
			collection = c
		}

		opts := reconcile.QueryOptions{Limit: limit, Locale: cfg.GetLocale()}
		if sortFlag != "" {
			method, err := reconcile.ParseSortMethod(sortFlag)
			if err != nil {
				return err
			}
			opts.Sort = method
		}
		if save {
			if opts.Sort == "" {
				return fmt.Errorf("--save needs --sort")
			}
			if err := config.SaveSort(collection, opts.Sort); err != nil {
				return fmt.Errorf("failed to save sort order: %w", err)
			}
			_ = cfg.SetSort(collection, opts.Sort)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", faint(fmt.Sprintf("%s will be sorted by %s from now on", collection, opts.Sort)))
		}
		if since != "" {
			cutoff, err := timeutil.ParsePeriod(since, time.Now())
			if err != nil {
				return err
			}
			opts.Since = cutoff
		}

		entries, err := svc.List(cmd.Context(), collection, opts)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", collection, err)
		}

		if asJSON {
			if entries == nil {
				entries = []reconcile.Entry{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		printEntries(cmd.OutOrStdout(), collection, entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("sort", "s", "", "sort: alpha, mostVisited, dateAdded, firstVisited, recentlyVisited (default: the saved order)")
	listCmd.Flags().Bool("save", false, "remember --sort for this collection")
	listCmd.Flags().String("since", "", "only entries since: today, yesterday, week, month, year, 7d, 36h or 2006-01-02")
	listCmd.Flags().IntP("limit", "n", config.DefaultListLimit, "max entries to show (0 for all)")
	listCmd.Flags().Bool("json", false, "print entries as JSON")
}
