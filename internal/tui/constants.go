package tui

import "time"

const (
	// Timeouts and Intervals
	TickInterval         = 50 * time.Millisecond
	NotificationDuration = 2 * time.Second

	// Layout
	MinWidth        = 40
	AvatarCols      = 16
	AvatarRows      = 8
	DefaultPaddingX = 1
	DefaultPaddingY = 0

	// Settings modal
	SettingsWidth  = 70
	SettingsHeight = 18

	// Placeholder shown for values not fetched yet
	Placeholder = "--"
)
