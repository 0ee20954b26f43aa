package tui

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/timeline-badge/timeline/internal/config"
)

// viewSettings renders the Btop-style settings page. Values are read-only
// here; they are edited in settings.json and apply on the next start.
func (m RootModel) viewSettings() string {
	width := SettingsWidth
	height := SettingsHeight
	if m.width < width+4 {
		width = m.width - 4
	}
	if m.height < height+4 {
		height = m.height - 4
	}

	categories := config.CategoryOrder()
	metadata := config.GetSettingsMetadata()

	// === TAB BAR ===
	var tabItems []string
	for i, cat := range categories {
		label := fmt.Sprintf("[%d] %s", i+1, cat)
		if i == m.SettingsActiveTab {
			tabItems = append(tabItems, ActiveTabStyle.Render(label))
		} else {
			tabItems = append(tabItems, TabStyle.Render(label))
		}
	}
	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabItems...)

	// === CONTENT AREA ===
	currentCategory := categories[m.SettingsActiveTab]
	values := m.getSettingsValues(currentCategory)

	labelWidth := 20
	var rows []string
	for _, meta := range metadata[currentCategory] {
		label := lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(ColorLightGray).
			Render(meta.Label)
		value := lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			Render(formatSettingValue(values[meta.Key], meta.Type))
		rows = append(rows, label+value)
	}

	helpText := m.help.View(SettingsKeys)

	fullContent := lipgloss.JoinVertical(lipgloss.Left,
		tabBar,
		"",
		strings.Join(rows, "\n"),
		"",
		lipgloss.NewStyle().Foreground(ColorGray).Render(config.GetSettingsPath()),
		helpText,
	)

	box := renderBtopBox("Settings", lipgloss.NewStyle().Padding(0, 1).Render(fullContent), width, height, ColorNeonPink, false)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// getSettingsValues returns a map of setting key -> value for a category
func (m RootModel) getSettingsValues(category string) map[string]interface{} {
	values := make(map[string]interface{})
	s := m.Settings

	switch category {
	case "General":
		values["cache_dir"] = s.CacheDir()
		values["debug_log"] = s.General.DebugLog
		values["theme"] = themeName(s.General.Theme)
	case "Network":
		values["link_timeout"] = s.Network.LinkTimeout
		values["open_timeout"] = s.Network.OpenTimeout
		values["probe_address"] = s.Network.ProbeAddress
		values["user_agent"] = s.Network.UserAgent
		values["proxy_url"] = s.Network.ProxyURL
		values["skip_tls_verification"] = s.Network.SkipTLSVerification
	case "Fetch":
		values["chunk_size"] = s.Fetch.ChunkSize
		values["details_url"] = s.Fetch.DetailsURL
		values["contributions_url"] = s.Fetch.ContributionsURL
		values["avatar_url"] = s.Fetch.AvatarURL
	case "Display":
		values["weeks"] = s.Display.Weeks
		values["tick_interval"] = s.Display.TickInterval
	}

	return values
}

func themeName(theme int) string {
	switch theme {
	case config.ThemeLight:
		return "Light"
	case config.ThemeDark:
		return "Dark"
	default:
		return "System"
	}
}

// formatSettingValue formats a setting value for display
func formatSettingValue(value interface{}, typ string) string {
	if value == nil {
		return "-"
	}

	switch typ {
	case "bool":
		if b, ok := value.(bool); ok {
			if b {
				return "True"
			}
			return "False"
		}
	case "duration":
		if d, ok := value.(time.Duration); ok {
			return d.String()
		}
	case "string":
		if s, ok := value.(string); ok {
			if s == "" {
				return "(default)"
			}
			if utf8.RuneCountInString(s) > 40 {
				return truncateString(s, 37)
			}
			return s
		}
	}

	// Fallback using reflection for numeric types
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	default:
		return fmt.Sprintf("%v", value)
	}
}
