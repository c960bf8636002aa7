// ABOUTME: Centralized configuration defaults for wikifaves
// ABOUTME: Contains magic numbers and hardcoded values for display, storage, and serving

package config

// Display settings
const (
	DefaultListLimit = 20
	SeparatorWidth   = 60
	DateFormatShort  = "02 Jan 06 15:04 MST"
	DateFormatLong   = "Mon, 02 Jan 2006 15:04 MST"

	DefaultFavoritesSort = "dateAdded"
	DefaultHistorySort   = "recentlyVisited"
)

// Storage settings
const (
	DefaultDirPerms       = 0755
	DefaultSyncQuotaBytes = 8192
	DefaultLocale         = "en"
)

// Server settings
const (
	DefaultListenAddr = "127.0.0.1:7531"
)

// WipeConfirmation must be typed to confirm wiping all data.
const WipeConfirmation = "wikifaves"
