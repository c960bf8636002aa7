// ABOUTME: Cobra command for interactive wikifaves configuration.
// ABOUTME: Launches a bubbletea TUI wizard for backend, data directory, sync and locale.
package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/harper/wikifaves/internal/config"
	"github.com/harper/wikifaves/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:         "setup",
	Short:       "Configure wikifaves storage and sync",
	Long:        "Interactive wizard to configure the storage backend, data directory, sync and sort locale.",
	Annotations: map[string]string{skipStoreAnnotation: "true"},
	RunE:        runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	current, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	model := tui.NewSetupModel(tui.SetupResult{
		Backend: current.Backend,
		DataDir: current.DataDir,
		Sync:    current.Sync,
		Locale:  current.Locale,
	})

	p := tea.NewProgram(model, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	final := result.(tui.SetupModel)
	if !final.ShouldSave() {
		fmt.Fprintln(cmd.OutOrStdout(), "Setup canceled.")
		return nil
	}

	applySetup(current, final.Result())
	if err := current.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", config.GetConfigPath())
	return nil
}

// applySetup copies wizard answers onto c, keeping defaults for blanks.
func applySetup(c *config.Config, res tui.SetupResult) {
	if res.Backend != "" {
		c.Backend = res.Backend
	}
	if res.DataDir != "" {
		c.DataDir = res.DataDir
	}
	if res.Locale != "" {
		c.Locale = res.Locale
	}
	c.Sync = res.Sync
}
