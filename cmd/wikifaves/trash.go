// ABOUTME: Trash, restore, purge and empty-trash commands
// ABOUTME: Soft-deletes records and brings them back, merging with any live copy

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/models"
)

var trashCmd = &cobra.Command{
	Use:   "trash <url|key|title>",
	Short: "Move a favorite or history record to the trash",
	Long: `Move a record to the trash. Use --from to choose which collection.

Examples:
  wikifaves trash Alan_Turing
  wikifaves trash Alan_Turing --from history`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		source, err := models.ParseSourceType(from)
		if err != nil {
			return err
		}
		key, err := keyArg(args[0])
		if err != nil {
			return err
		}

		out, err := svc.Trash(cmd.Context(), key, source)
		if err != nil {
			return err
		}
		if out.NotFound {
			return fmt.Errorf("%s is not in %s", key, source)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to trash\n", key, source)
		reportSync(cmd, out)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <url|key|title>",
	Short: "Restore a record from the trash",
	Long:  "Restore a trashed record to the collection it came from, merging with any live record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyArg(args[0])
		if err != nil {
			return err
		}

		out, err := svc.Restore(cmd.Context(), key)
		if err != nil {
			return err
		}
		if out.NotFound {
			return fmt.Errorf("%s is not in trash", key)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Restored %s\n", green("✓"), key)
		reportSync(cmd, out)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:     "purge <url|key|title>",
	Aliases: []string{"rm"},
	Short:   "Permanently delete one record from the trash",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := keyArg(args[0])
		if err != nil {
			return err
		}

		out, err := svc.Purge(cmd.Context(), key)
		if err != nil {
			return err
		}
		if out.NotFound {
			return fmt.Errorf("%s is not in trash", key)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s permanently\n", key)
		return nil
	},
}

var emptyTrashCmd = &cobra.Command{
	Use:   "empty-trash",
	Short: "Permanently delete everything in the trash",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(cmd, "Delete everything in the trash? [y/N] ", "y", "Y") {
			fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
			return nil
		}

		n, err := svc.EmptyTrash(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d trashed records\n", n)
		return nil
	},
}

func init() {
	trashCmd.Flags().String("from", string(models.SourceFavorites), "collection to trash from: favorites or history")
	emptyTrashCmd.Flags().BoolP("yes", "y", false, "skip confirmation")

	rootCmd.AddCommand(trashCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(emptyTrashCmd)
}
