// ABOUTME: Open command for launching a Wikipedia page in the browser
// ABOUTME: Opens the canonical URL and records the visit in history

package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/resolve"
)

var openCmd = &cobra.Command{
	Use:   "open <url|key|title>",
	Short: "Open a page in the browser and record the visit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		noVisit, _ := cmd.Flags().GetBool("no-visit")

		page, err := resolve.FromInput(args[0])
		if err != nil {
			return err
		}
		// Keep a stored title over the one derived from the key
		if view, found, err := svc.Get(cmd.Context(), page.Key); err == nil && found {
			page.DisplayTitle = view.Title()
		}

		if err := openBrowser(page.URL); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}

		if !noVisit {
			if _, err := svc.Visit(cmd.Context(), page, false); err != nil {
				return fmt.Errorf("failed to record visit: %w", err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Opened %s\n", green("✓"), page.DisplayTitle)
		return nil
	},
}

// openBrowser opens a URL in the default browser for the current platform
var openBrowser = func(urlStr string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "linux":
		cmd = exec.Command("xdg-open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	// Reap the process asynchronously to prevent zombie processes
	go cmd.Wait()

	return nil
}

func init() {
	openCmd.Flags().Bool("no-visit", false, "do not record the visit in history")
	rootCmd.AddCommand(openCmd)
}
