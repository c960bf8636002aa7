// ABOUTME: Interactive TUI wizard for configuring wikifaves storage and sync.
// ABOUTME: 4-step bubbletea model collecting backend, data directory, sync toggle, and sort locale.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
)

// Step represents the current wizard step.
type Step int

const (
	StepBackend Step = iota
	StepDataDir
	StepSync
	StepLocale
	StepDone
)

const inputSteps = int(StepDone)

var backends = []string{"sqlite", "file", "memory"}

// SetupResult holds the values collected by the wizard.
type SetupResult struct {
	Backend string
	DataDir string
	Sync    bool
	Locale  string
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step     Step
	inputs   [inputSteps]textinput.Model
	errMsg   string
	quitting bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// DefaultDataDir returns the default XDG data directory for wikifaves.
func DefaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "wikifaves")
}

// NewSetupModel creates a new setup wizard model, pre-filling with existing config values.
func NewSetupModel(current SetupResult) SetupModel {
	placeholders := [inputSteps]string{"sqlite", DefaultDataDir(), "no", "en"}
	values := [inputSteps]string{current.Backend, current.DataDir, "", current.Locale}
	if current.Sync {
		values[StepSync] = "yes"
	}

	var m SetupModel
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Width = 50
		if values[i] != "" {
			in.SetValue(values[i])
		}
		m.inputs[i] = in
	}
	m.inputs[StepBackend].Focus()
	return m
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			return m, tea.Quit
		}

		if m.step < StepDone {
			return m.updateInput(msg)
		}
	default:
		// Forward other messages (e.g. cursor blink) to the active input
		if m.step < StepDone {
			idx := int(m.step)
			var cmd tea.Cmd
			m.inputs[idx], cmd = m.inputs[idx].Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return m.handleEnter()
	}

	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) handleEnter() (tea.Model, tea.Cmd) {
	idx := int(m.step)
	val := strings.TrimSpace(m.inputs[idx].Value())
	if val == "" {
		val = m.inputs[idx].Placeholder
	}

	switch m.step {
	case StepBackend:
		val = strings.ToLower(val)
		if !contains(backends, val) {
			m.errMsg = fmt.Sprintf("backend must be one of: %s", strings.Join(backends, ", "))
			return m, nil
		}
	case StepSync:
		b, ok := parseYesNo(val)
		if !ok {
			m.errMsg = "answer yes or no"
			return m, nil
		}
		val = "no"
		if b {
			val = "yes"
		}
	case StepLocale:
		if _, err := language.Parse(val); err != nil {
			m.errMsg = fmt.Sprintf("unknown locale %q", val)
			return m, nil
		}
	}

	m.errMsg = ""
	m.inputs[idx].SetValue(val)
	m.inputs[idx].Blur()
	m.step++

	if m.step == StepDone {
		return m, tea.Quit
	}
	m.inputs[m.step].Focus()
	return m, textinput.Blink
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "y", "yes", "true", "on":
		return true, true
	case "n", "no", "false", "off":
		return false, true
	}
	return false, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var stepTitles = [inputSteps]struct{ title, hint string }{
	{"Storage Backend", "(sqlite, file or memory, press Enter for default)"},
	{"Data Directory", "(press Enter for default: %s)"},
	{"Sync Favorites", "(yes to sync favorites across devices with Charm, press Enter for no)"},
	{"Sort Locale", "(language tag for alphabetical sorting, press Enter for en)"},
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   WIKIFAVES"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Configure where favorites and history are stored.\n\n")

	if m.step == StepDone {
		b.WriteString(successStyle.Render("Setup complete! Configuration will be saved."))
		b.WriteString("\n\n")
		m.writeSummary(&b, inputSteps)
		b.WriteString("\n")
		return b.String()
	}

	m.writeSummary(&b, int(m.step))
	if m.step > StepBackend {
		b.WriteString("\n")
	}
	st := stepTitles[m.step]
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d: %s", int(m.step)+1, inputSteps, st.title)))
	b.WriteString("\n")
	hint := st.hint
	if m.step == StepDataDir {
		hint = fmt.Sprintf(hint, DefaultDataDir())
	}
	b.WriteString(promptStyle.Render(hint))
	b.WriteString("\n")
	b.WriteString(m.inputs[m.step].View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}

	return b.String()
}

func (m SetupModel) writeSummary(b *strings.Builder, upto int) {
	labels := [inputSteps]string{"Backend", "Data directory", "Sync", "Locale"}
	for i := 0; i < upto; i++ {
		fmt.Fprintf(b, "  %-15s %s\n", labels[i]+":", m.inputs[i].Value())
	}
}

// Result returns the entered values.
func (m SetupModel) Result() SetupResult {
	sync, _ := parseYesNo(m.inputs[StepSync].Value())
	return SetupResult{
		Backend: m.inputs[StepBackend].Value(),
		DataDir: m.inputs[StepDataDir].Value(),
		Sync:    sync,
		Locale:  m.inputs[StepLocale].Value(),
	}
}

// ShouldSave returns true if the wizard completed and the user did not cancel.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
