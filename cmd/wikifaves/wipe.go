// ABOUTME: Wipe command deletes every local record and the synced favorites
// ABOUTME: Requires typing the confirmation word before anything is removed

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all favorites, history and trash",
	Long: `Permanently delete every local record and clear the synced favorites.

WARNING: This cannot be undone. Export first with 'wikifaves export'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, color.RedString("WARNING: This will permanently delete all records!"))
		prompt := fmt.Sprintf("\nType '%s' to confirm: ", config.WipeConfirmation)
		if !confirm(cmd, prompt, config.WipeConfirmation) {
			fmt.Fprintln(w, "Canceled.")
			return nil
		}

		if err := svc.Wipe(cmd.Context()); err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}
		fmt.Fprintln(w, green("✓ All records deleted"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
}
