package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/timeline-badge/timeline/internal/config"
)

var (
	// Colors
	ColorNeonPurple = lipgloss.Color("#bd93f9")
	ColorNeonPink   = lipgloss.Color("#ff79c6")
	ColorNeonCyan   = lipgloss.Color("#8be9fd")
	ColorGreen      = lipgloss.Color("#50fa7b")
	ColorRed        = lipgloss.Color("#ff5555")
	ColorOrange     = lipgloss.Color("#ffb86c")
	ColorText       = lipgloss.Color("#f8f8f2")
	ColorLightGray  = lipgloss.Color("#a4a4b0")
	ColorGray       = lipgloss.Color("#6272a4")

	// Styles
	AppStyle = lipgloss.NewStyle().
			Padding(DefaultPaddingY, DefaultPaddingX)

	NameStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true)

	HandleStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan)

	StatsLabelStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Width(12)

	StatsValueStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	TagStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	NotificationStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true).
			Underline(true).
			Padding(0, 1)
)

// Theme holds the heatmap palette, index 0 is an empty day and 4 the busiest.
type Theme struct {
	Dark   bool
	Levels [5]lipgloss.Color
}

var (
	darkTheme = Theme{Dark: true, Levels: [5]lipgloss.Color{
		"#161b22", "#0e4429", "#006d32", "#26a641", "#39d353",
	}}
	lightTheme = Theme{Dark: false, Levels: [5]lipgloss.Color{
		"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39",
	}}
)

// ResolveTheme maps the settings value to a palette. The adaptive theme asks
// the terminal for its background colour.
func ResolveTheme(setting int) Theme {
	switch setting {
	case config.ThemeLight:
		return lightTheme
	case config.ThemeDark:
		return darkTheme
	default:
		if termenv.HasDarkBackground() {
			return darkTheme
		}
		return lightTheme
	}
}
