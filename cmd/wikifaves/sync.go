// ABOUTME: Sync subcommand for the Charm-backed synced favorites
// ABOUTME: Provides status, link, push, pull, repair, reset and wipe commands

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/charm"
	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/reconcile"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Manage cloud sync for favorites",
	Long: `Favorites are mirrored to a small synced store using Charm.
History and trash never leave this device.

Charm uses your SSH keys for authentication - no passwords needed!
All data is encrypted end-to-end before being stored.

Commands:
  status  - Show account info and compare local and synced favorites
  link    - Link your account
  push    - Rewrite the synced favorites from local favorites
  pull    - Merge synced favorites from other devices into local favorites
  repair  - Fix a corrupted local sync database
  reset   - Delete the local sync database and re-download from cloud
  wipe    - Permanently delete synced data (local and cloud)`,
}

// charmClientForCommand returns the open sync client or a fresh one for
// account-level commands that work even when sync is off.
func charmClientForCommand() (*charm.Client, error) {
	if syncClient != nil {
		return syncClient, nil
	}
	return charm.NewClient(cfg.GetCharmHost())
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if err := requireSync(); err != nil {
			fmt.Fprintln(w, yellow("Sync is off"))
			fmt.Fprintf(w, "  Enable it with \"sync\": true in %s\n", faint(config.GetConfigPath()))
			return nil
		}

		id, err := syncClient.ID()
		if err != nil {
			fmt.Fprintln(w, yellow("Not linked to Charm"))
			fmt.Fprintln(w, "\nRun 'wikifaves sync link' to connect your account.")
		} else {
			fmt.Fprintln(w, green("Linked to Charm"))
			fmt.Fprintf(w, "  Account ID: %s\n", id)
		}
		fmt.Fprintf(w, "  Server: %s\n", cfg.GetCharmHost())

		st, err := svc.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compare favorites: %w", err)
		}
		fmt.Fprintf(w, "\n  Local favorites:  %d\n", st.Local)
		if !st.LocalWritten.IsZero() {
			fmt.Fprintf(w, "  Last written:     %s\n", humanize.Time(st.LocalWritten))
		}
		fmt.Fprintf(w, "  Synced favorites: %d\n", st.Remote)
		fmt.Fprintf(w, "  Projection size:  %s of %s\n",
			humanize.Bytes(uint64(st.ProjectSize)), humanize.Bytes(uint64(cfg.GetSyncQuota())))
		if used, quota, err := syncClient.Usage(cmd.Context()); err == nil {
			fmt.Fprintf(w, "  Store usage:      %s of %s\n", humanize.Bytes(uint64(used)), humanize.Bytes(uint64(quota)))
		}

		if st.Stale {
			fmt.Fprintf(w, "\n%s since %s\n", yellow("Synced favorites are stale"), humanize.Time(st.StaleSince))
			fmt.Fprintln(w, faint("  the last synced write failed; 'wikifaves sync push' rewrites them from local favorites"))
			return nil
		}
		if st.InSync() {
			fmt.Fprintf(w, "\n%s\n", green("In sync"))
			return nil
		}
		fmt.Fprintf(w, "\n%s %d only local, %d only synced\n", yellow("Out of sync:"), st.OnlyLocal, st.OnlyRemote)
		fmt.Fprintln(w, faint("  'wikifaves sync pull' merges synced favorites, 'wikifaves sync push' overwrites them"))
		return nil
	},
}

var syncLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link to Charm account",
	Long: `Link this device to your Charm account.

Your SSH keys are used for secure authentication.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		cc, err := charmClientForCommand()
		if err != nil {
			return fmt.Errorf("failed to get charm client: %w", err)
		}

		id, err := cc.ID()
		if err == nil {
			fmt.Fprintln(w, green("Already linked to Charm!"))
			fmt.Fprintf(w, "  Account ID: %s\n", id)
			return nil
		}

		fmt.Fprintln(w, "Link your Charm account by visiting:")
		fmt.Fprintf(w, "  https://%s\n\n", cfg.GetCharmHost())
		fmt.Fprintln(w, yellow("After linking, run 'wikifaves sync status' to verify."))
		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Rewrite synced favorites from local favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSync(); err != nil {
			return err
		}
		level, err := svc.RebuildSync(cmd.Context())
		if err != nil {
			return fmt.Errorf("push failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Synced favorites rewritten\n", green("✓"))
		if level != reconcile.CompactNone {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", faint("compacted to fit the sync quota: "+level.String()))
		}
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Merge synced favorites into local favorites",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSync(); err != nil {
			return err
		}
		n, out, err := svc.PullSync(cmd.Context())
		if err != nil {
			return fmt.Errorf("pull failed: %w", err)
		}
		if out.Resynced {
			fmt.Fprintf(cmd.OutOrStdout(), "%s Synced favorites were stale and have been rewritten from local favorites\n", yellow("!"))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Added %d favorites from other devices\n", green("✓"), n)
		reportSync(cmd, out)
		return nil
	},
}

var syncRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Repair a corrupted local sync database",
	Long: `Attempt to repair a corrupted local sync database.

Steps performed:
  1. Checkpoint WAL (write-ahead log) into main database
  2. Remove stale SHM (shared memory) files
  3. Run integrity check
  4. Vacuum database to reclaim space

Use --force to attempt REINDEX recovery if corruption is detected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		w := cmd.OutOrStdout()

		cc, err := charmClientForCommand()
		if err != nil {
			return fmt.Errorf("failed to get charm client: %w", err)
		}

		fmt.Fprintln(w, "Repairing database...")
		report, err := cc.Repair(force)

		if report.WalCheckpointed {
			fmt.Fprintln(w, green("  ✓ WAL checkpointed"))
		}
		if report.ShmRemoved {
			fmt.Fprintln(w, green("  ✓ SHM file removed"))
		}
		if report.IntegrityOK {
			fmt.Fprintln(w, green("  ✓ Integrity check passed"))
		} else {
			fmt.Fprintln(w, red("  ✗ Integrity check failed"))
		}
		if report.Vacuumed {
			fmt.Fprintln(w, green("  ✓ Database vacuumed"))
		}

		if err != nil {
			if !force {
				fmt.Fprintln(w, "\nRun with --force to attempt REINDEX recovery.")
			}
			return err
		}

		fmt.Fprintln(w, green("\nRepair complete."))
		return nil
	},
}

var syncResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete local sync database and re-download from cloud",
	Long: `Delete the local sync database and re-sync from Charm Cloud.

Local favorites, history and trash are not touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "This will DELETE the local sync database and re-download from Charm Cloud.")
		if !confirm(cmd, "\nContinue? [y/N] ", "y", "Y") {
			fmt.Fprintln(w, "Canceled.")
			return nil
		}

		cc, err := charmClientForCommand()
		if err != nil {
			return fmt.Errorf("failed to get charm client: %w", err)
		}
		fmt.Fprintln(w, "\nResetting database...")
		if err := cc.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}

		fmt.Fprintln(w, green("  ✓ Local sync database deleted"))
		fmt.Fprintln(w, green("  ✓ Synced from cloud"))
		fmt.Fprintln(w, green("\nReset complete."))
		return nil
	},
}

var syncWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Permanently delete synced data (local and cloud)",
	Long: `Permanently delete the synced favorites on this device and in the cloud.

WARNING: This is destructive and cannot be undone!
Other devices lose their synced favorites too. Local favorites stay
and can be pushed again with 'wikifaves sync push'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, color.RedString("WARNING: This will permanently delete synced data!"))
		if !confirm(cmd, "\nType 'wipe' to confirm: ", "wipe") {
			fmt.Fprintln(w, "Canceled.")
			return nil
		}

		cc, err := charmClientForCommand()
		if err != nil {
			return fmt.Errorf("failed to get charm client: %w", err)
		}
		fmt.Fprintln(w, "\nWiping database...")
		report, err := cc.Wipe()
		if err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}

		if report.CloudBackupsDeleted > 0 {
			fmt.Fprintln(w, green(fmt.Sprintf("  ✓ %d cloud backups deleted", report.CloudBackupsDeleted)))
		}
		if report.LocalFilesDeleted > 0 {
			fmt.Fprintln(w, green(fmt.Sprintf("  ✓ %d local files deleted", report.LocalFilesDeleted)))
		}

		fmt.Fprintln(w, green("\nWipe complete."))
		return nil
	},
}

func init() {
	syncRepairCmd.Flags().Bool("force", false, "Attempt REINDEX recovery if corruption detected")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncLinkCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncRepairCmd)
	syncCmd.AddCommand(syncResetCmd)
	syncCmd.AddCommand(syncWipeCmd)

	rootCmd.AddCommand(syncCmd)
}
