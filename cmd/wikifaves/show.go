// ABOUTME: Show command renders everything known about one page
// ABOUTME: Builds a markdown summary and renders it with glamour

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/resolve"
)

var showCmd = &cobra.Command{
	Use:   "show <url|key|title>",
	Short: "Show a page's favorite, history and trash state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetBool("raw")

		key, err := keyArg(args[0])
		if err != nil {
			return err
		}
		view, found, err := svc.Get(cmd.Context(), key)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no record of %s", key)
		}

		md := renderPageMarkdown(view)
		if raw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}

		rendered, err := glamour.Render(md, "dark")
		if err != nil {
			// Fallback to plain text
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("raw", false, "print markdown without rendering")
}

// renderPageMarkdown formats a page view as a markdown document.
func renderPageMarkdown(view faves.PageView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", view.Title())
	fmt.Fprintf(&b, "<%s>\n\n", resolve.CanonicalURL(view.Key))
	fmt.Fprintf(&b, "Key: `%s`\n\n", view.Key)

	if f := view.Favorite; f != nil {
		fmt.Fprintf(&b, "## ★ Favorite\n\nAdded %s\n\n", f.DateAdded.Local().Format(config.DateFormatLong))
	}
	if h := view.History; h != nil {
		b.WriteString("## History\n\n")
		fmt.Fprintf(&b, "- Visits: %d\n", h.VisitCount)
		fmt.Fprintf(&b, "- First visit: %s\n", h.FirstVisit.Local().Format(config.DateFormatLong))
		fmt.Fprintf(&b, "- Last visit: %s (%s)\n", h.LastVisit.Local().Format(config.DateFormatLong), humanize.Time(h.LastVisit))
		b.WriteString("\n")
	}
	if t := view.Trash; t != nil {
		b.WriteString("## Trash\n\n")
		fmt.Fprintf(&b, "Moved from %s on %s\n", t.SourceType, t.TrashDate.Local().Format(config.DateFormatLong))
	}
	return b.String()
}
