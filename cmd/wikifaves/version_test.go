// ABOUTME: Tests for version command
// ABOUTME: Verifies version information display

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionVariables(t *testing.T) {
	if Version == "" {
		t.Error("expected Version to be set")
	}
	if Commit == "" {
		t.Error("expected Commit to be set")
	}
	if BuildDate == "" {
		t.Error("expected BuildDate to be set")
	}
	if Version != "dev" {
		t.Logf("Version is %q (non-default, likely built with ldflags)", Version)
	}
}

func TestVersionCommandUse(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("expected Use to be 'version', got %q", versionCmd.Use)
	}
	if versionCmd.Short == "" {
		t.Error("expected version command to have a short description")
	}
}

func TestVersionCommandOutput(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	out := buf.String()
	if !strings.HasPrefix(out, "wikifaves "+Version) {
		t.Errorf("expected output to start with version, got %q", out)
	}
	if !strings.Contains(out, "commit:  "+Commit) {
		t.Errorf("expected commit line, got %q", out)
	}
}
