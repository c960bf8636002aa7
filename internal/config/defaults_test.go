// ABOUTME: Tests for configuration defaults
// ABOUTME: Verifies constants are properly defined

package config

import (
	"testing"

	"github.com/harper/wikifaves/internal/charm"
)

func TestDisplayConstants(t *testing.T) {
	if DefaultListLimit <= 0 {
		t.Error("DefaultListLimit should be positive")
	}
	if SeparatorWidth <= 0 {
		t.Error("SeparatorWidth should be positive")
	}
}

func TestSyncQuotaFitsCharmItem(t *testing.T) {
	if DefaultSyncQuotaBytes > charm.MaxItemBytes {
		t.Errorf("default projection quota %d exceeds charm item limit %d", DefaultSyncQuotaBytes, charm.MaxItemBytes)
	}
}
