// ABOUTME: Shared terminal output helpers for CLI commands
// ABOUTME: Formats entries and outcomes with fatih/color

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
)

var (
	faint  = color.New(color.Faint).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	star   = color.New(color.FgYellow, color.Bold).Sprint("★")
)

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(config.DateFormatShort)
}

// printEntries renders one listing line per entry.
func printEntries(w io.Writer, c models.Collection, entries []reconcile.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No %s found\n", c)
		return
	}
	for _, e := range entries {
		switch c {
		case models.CollectionFavorites:
			fmt.Fprintf(w, "%s %s %s %s\n", star, e.DisplayTitle, faint(string(e.Key)), faint(formatDate(e.DateAdded)))
		case models.CollectionHistory:
			mark := " "
			if e.Favorite {
				mark = star
			}
			fmt.Fprintf(w, "%s %s %s %s\n", mark, e.DisplayTitle,
				faint(fmt.Sprintf("%d× ", e.VisitCount)), faint("last "+formatDate(e.LastVisit)))
		case models.CollectionTrash:
			fmt.Fprintf(w, "  %s %s %s\n", e.DisplayTitle,
				faint(fmt.Sprintf("(from %s)", e.SourceType)), faint("trashed "+formatDate(e.TrashDate)))
		}
	}
}

// reportSync prints the synced-scope warning of an outcome, if any.
func reportSync(cmd *cobra.Command, out faves.Outcome) {
	if out.SyncErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s saved locally, but synced favorites are stale: %v\n", yellow("warning:"), out.SyncErr)
		fmt.Fprintln(cmd.ErrOrStderr(), faint("  run 'wikifaves sync push' to retry"))
	}
}

// keyArg accepts a page key, a title with spaces, or an article URL.
func keyArg(arg string) (models.PageKey, error) {
	page, err := resolve.FromInput(arg)
	if err != nil {
		return "", err
	}
	return page.Key, nil
}

// confirm reads one line from the command's input and compares it to want.
func confirm(cmd *cobra.Command, prompt string, want ...string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	for _, w := range want {
		if answer == w {
			return true
		}
	}
	return false
}
