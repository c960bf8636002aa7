// ABOUTME: Unit tests for the wikifaves setup TUI wizard bubbletea model.
// ABOUTME: Uses synthetic tea.Msg values to test state machine transitions.
package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func enter(t *testing.T, m SetupModel) SetupModel {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(SetupModel)
}

func TestNewSetupModel_DefaultValues(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	if m.step != StepBackend {
		t.Errorf("expected initial step StepBackend, got %d", m.step)
	}
	for i, in := range m.inputs {
		if in.Value() != "" {
			t.Errorf("expected empty input %d for new config, got %q", i, in.Value())
		}
	}
}

func TestNewSetupModel_ExistingConfig(t *testing.T) {
	m := NewSetupModel(SetupResult{Backend: "file", DataDir: "/custom/path", Sync: true, Locale: "sv"})
	want := []string{"file", "/custom/path", "yes", "sv"}
	for i, w := range want {
		if got := m.inputs[i].Value(); got != w {
			t.Errorf("input %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestSetupModel_DefaultsFlow(t *testing.T) {
	m := NewSetupModel(SetupResult{})

	m = enter(t, m)
	if m.step != StepDataDir {
		t.Fatalf("expected StepDataDir after Enter on backend, got %d", m.step)
	}
	if m.inputs[StepBackend].Value() != "sqlite" {
		t.Errorf("expected default backend 'sqlite', got %q", m.inputs[StepBackend].Value())
	}

	m = enter(t, m)
	if m.inputs[StepDataDir].Value() != DefaultDataDir() {
		t.Errorf("expected default data dir, got %q", m.inputs[StepDataDir].Value())
	}
	m = enter(t, m)
	m = enter(t, m)
	if m.step != StepDone {
		t.Fatalf("expected StepDone, got %d", m.step)
	}

	res := m.Result()
	if res.Backend != "sqlite" || res.Sync || res.Locale != "en" {
		t.Errorf("unexpected defaults: %+v", res)
	}
	if !m.ShouldSave() {
		t.Error("expected ShouldSave true after completing flow")
	}
}

func TestSetupModel_InvalidBackend(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	m.inputs[StepBackend].SetValue("markdown")

	m = enter(t, m)
	if m.step != StepBackend {
		t.Errorf("expected to stay on StepBackend with invalid backend, got %d", m.step)
	}
	if !strings.Contains(m.View(), "backend must be one of") {
		t.Error("expected validation message in view")
	}
}

func TestSetupModel_BackendCaseInsensitive(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	m.inputs[StepBackend].SetValue("SQLite")

	m = enter(t, m)
	if m.inputs[StepBackend].Value() != "sqlite" {
		t.Errorf("expected lowercased backend, got %q", m.inputs[StepBackend].Value())
	}
}

func TestSetupModel_SyncAnswers(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		advance bool
	}{
		{"y", true, true},
		{"YES", true, true},
		{"no", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := NewSetupModel(SetupResult{})
			m.step = StepSync
			m.inputs[StepSync].SetValue(tt.input)
			m = enter(t, m)
			if advanced := m.step == StepLocale; advanced != tt.advance {
				t.Fatalf("advance = %v, want %v", advanced, tt.advance)
			}
			if tt.advance && m.Result().Sync != tt.want {
				t.Errorf("sync = %v, want %v", m.Result().Sync, tt.want)
			}
		})
	}
}

func TestSetupModel_InvalidLocale(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	m.step = StepLocale
	m.inputs[StepLocale].SetValue("not a locale!")
	m = enter(t, m)
	if m.step != StepLocale {
		t.Errorf("expected to stay on StepLocale, got %d", m.step)
	}
}

func TestSetupModel_QuitOnCtrlC(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updated.(SetupModel)
	if cmd == nil {
		t.Error("expected quit cmd on ctrl+c")
	}
	if !m.quitting {
		t.Error("expected quitting to be true")
	}
	if m.ShouldSave() {
		t.Error("expected ShouldSave false after ctrl+c")
	}
}

func TestSetupModel_QuitOnEsc(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	m = updated.(SetupModel)
	if cmd == nil {
		t.Error("expected quit cmd on escape")
	}
	if !m.quitting {
		t.Error("expected quitting to be true")
	}
}

func TestSetupModel_ViewShowsCurrentStep(t *testing.T) {
	m := NewSetupModel(SetupResult{})
	if !strings.Contains(m.View(), "WIKIFAVES") {
		t.Error("expected view to contain WIKIFAVES branding")
	}

	steps := map[Step]string{
		StepBackend: "Storage Backend",
		StepDataDir: "Data Directory",
		StepSync:    "Sync Favorites",
		StepLocale:  "Sort Locale",
	}
	for step, want := range steps {
		m.step = step
		if !strings.Contains(m.View(), want) {
			t.Errorf("expected step %d view to mention %q", step, want)
		}
	}
}

func TestSetupModel_ViewDone(t *testing.T) {
	m := NewSetupModel(SetupResult{Backend: "sqlite", DataDir: "/data/wikifaves", Locale: "en"})
	m.step = StepDone
	view := m.View()
	if !strings.Contains(view, "saved") {
		t.Error("expected StepDone view to mention saved")
	}
	if !strings.Contains(view, "/data/wikifaves") {
		t.Error("expected StepDone view to show the data directory")
	}
}
