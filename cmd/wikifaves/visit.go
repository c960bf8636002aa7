// ABOUTME: Visit command records a page view in history
// ABOUTME: Reloads of a page already in history are ignored

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	visitReload bool
	visitTitle  string
)

var visitCmd = &cobra.Command{
	Use:   "visit <url|key|title>",
	Short: "Record a page visit",
	Long: `Record a visit to a Wikipedia page in local history.

History is never synced. A reload of a page already in history is ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := pageArg(cmd, args[0], visitTitle, false)
		if err != nil {
			return err
		}

		out, err := svc.Visit(cmd.Context(), page, visitReload)
		if err != nil {
			return err
		}
		if !out.Changed {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to record")
			return nil
		}

		view, _, err := svc.Get(cmd.Context(), page.Key)
		if err != nil {
			return err
		}
		if view.History != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Visited %s %s\n", page.DisplayTitle,
				faint(fmt.Sprintf("(%d visits)", view.History.VisitCount)))
		}
		return nil
	},
}

func init() {
	visitCmd.Flags().BoolVar(&visitReload, "reload", false, "treat as a reload of the same page")
	visitCmd.Flags().StringVar(&visitTitle, "title", "", "display title to store")
	rootCmd.AddCommand(visitCmd)
}
