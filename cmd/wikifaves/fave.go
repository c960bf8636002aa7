// ABOUTME: Fave command toggles the favorite state of a page
// ABOUTME: Accepts an article URL, a page key, or a title with spaces

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/resolve"
)

var (
	faveTitle      string
	faveFetchTitle bool
)

var faveCmd = &cobra.Command{
	Use:   "fave <url|key|title>",
	Short: "Toggle a page in favorites",
	Long: `Toggle a Wikipedia page in or out of favorites.

Examples:
  wikifaves fave https://en.wikipedia.org/wiki/Alan_Turing
  wikifaves fave "Ada Lovelace"
  wikifaves fave Go_\(programming_language\) --fetch-title`,
	Args: cobra.ExactArgs(1),
	RunE: runFave,
}

func init() {
	faveCmd.Flags().StringVar(&faveTitle, "title", "", "display title to store")
	faveCmd.Flags().BoolVar(&faveFetchTitle, "fetch-title", false, "fetch the page and use its heading as the title")
	rootCmd.AddCommand(faveCmd)
}

func runFave(cmd *cobra.Command, args []string) error {
	page, err := pageArg(cmd, args[0], faveTitle, faveFetchTitle)
	if err != nil {
		return err
	}

	out, err := svc.Toggle(cmd.Context(), page)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out.Event != nil && out.Event.Action == models.ActionFavorited {
		fmt.Fprintf(w, "%s Added %s to favorites\n", star, page.DisplayTitle)
	} else {
		fmt.Fprintf(w, "%s Removed %s from favorites\n", faint("☆"), page.DisplayTitle)
	}
	reportSync(cmd, out)
	return nil
}

// pageArg resolves a page argument and applies title overrides.
func pageArg(cmd *cobra.Command, arg, title string, fetchTitle bool) (models.Page, error) {
	page, err := resolve.FromInput(arg)
	if err != nil {
		return models.Page{}, err
	}
	if title != "" {
		page.DisplayTitle = title
		return page, nil
	}
	if fetchTitle {
		enriched, err := resolve.Enrich(cmd.Context(), page)
		if err != nil {
			logger.Warn("could not fetch title, using default", "key", page.Key, "error", err)
			return page, nil
		}
		page = enriched
	}
	return page, nil
}
