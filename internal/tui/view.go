package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/engine/link"
	"github.com/timeline-badge/timeline/internal/engine/pipeline"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
	"github.com/timeline-badge/timeline/internal/session"
	"github.com/timeline-badge/timeline/internal/tui/components"
)

const dateLayout = "Jan 2, 2006"

func (m RootModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.state == SettingsState {
		return m.viewSettings()
	}

	switch m.snap.Screen {
	case session.ScreenMissingDetails:
		return m.viewMissingDetails()
	case session.ScreenConnectionFailed:
		return m.viewConnectionFailed()
	}

	width := m.width - 4
	if width < MinWidth {
		width = MinWidth
	}
	p := m.snap.Profile

	// --- HEADER: avatar + identity ---
	avatar := renderAvatar(p.Avatar, AvatarCols, AvatarRows)
	identity := renderIdentity(p, width-AvatarCols-6)
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		avatar,
		lipgloss.NewStyle().PaddingLeft(2).Render(identity),
	)
	headerBox := renderBtopBox("Profile", lipgloss.NewStyle().Padding(0, 1).Render(header), width, AvatarRows+2, ColorNeonPink, false)

	// --- ACTIVITY GRID ---
	heatmap := components.NewHeatmapModel(p.Grid, m.theme.Levels, width-6)
	gridContent := lipgloss.JoinVertical(lipgloss.Left,
		renderContributionSummary(p),
		"",
		heatmap.View(),
		"",
		lipgloss.NewStyle().Foreground(ColorGray).Render(heatmap.Legend()),
	)
	gridBox := renderBtopBox("Activity", lipgloss.NewStyle().Padding(0, 1).Render(gridContent), width, types.DaysPerWeek+6, ColorNeonCyan, true)

	// --- STATUS + FOOTER ---
	status := m.renderStatus()

	var footer string
	if m.notification != "" {
		footer = NotificationStyle.Render(m.notification)
	} else {
		footer = m.help.View(Keys)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		headerBox,
		gridBox,
		status,
		footer,
	))
}

func renderIdentity(p profile.Profile, w int) string {
	name := Placeholder
	if p.Name != "" {
		name = p.Name
	}
	location := Placeholder
	if p.Location != "" {
		location = p.Location
	}
	followers, repos := Placeholder, Placeholder
	if p.HasDetails() {
		followers = fmt.Sprintf("%d", p.Followers)
		repos = fmt.Sprintf("%d", p.PublicRepos)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		NameStyle.Render(truncateString(name, w)),
		HandleStyle.Render("@"+truncateString(p.Handle, w-1)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Location:"), StatsValueStyle.Render(truncateString(location, w-12))),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Followers:"), StatsValueStyle.Render(followers)),
		lipgloss.JoinHorizontal(lipgloss.Left, StatsLabelStyle.Render("Repos:"), StatsValueStyle.Render(repos)),
	)
}

func renderContributionSummary(p profile.Profile) string {
	if !p.HasContributions {
		return StatsLabelStyle.UnsetWidth().Render(Placeholder + " contributions")
	}
	summary := StatsValueStyle.Render(fmt.Sprintf("%d contributions", p.TotalContributions))
	if !p.RangeStart.IsZero() && !p.RangeEnd.IsZero() {
		summary += lipgloss.NewStyle().Foreground(ColorGray).Render(
			fmt.Sprintf("  %s - %s", p.RangeStart.Format(dateLayout), p.RangeEnd.Format(dateLayout)))
	}
	return summary
}

func (m RootModel) renderStatus() string {
	snap := m.snap
	label := snap.Status.String()

	var parts []string
	switch snap.Status {
	case pipeline.StatusComplete:
		parts = append(parts, NotificationStyle.Render("✔ "+label))
	case pipeline.StatusError:
		text := "✖ " + label
		if snap.Err != nil {
			text += ": " + truncateString(snap.Err.Error(), 60)
		}
		parts = append(parts, ErrorStyle.Render(text))
	case pipeline.StatusConnecting:
		text := label
		if snap.Link != link.Idle && snap.Target != "" {
			text = fmt.Sprintf("%s %s (%s)", label, snap.Target, snap.Elapsed.Round(time.Second))
		}
		parts = append(parts, m.spinner.View()+StatusStyle.Render(text))
	default:
		parts = append(parts, m.spinner.View()+StatusStyle.Render(label))
	}

	if snap.Offline {
		parts = append(parts, TagStyle.Render("[offline]"))
	}
	if snap.Forced {
		parts = append(parts, TagStyle.Render("[refresh]"))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(parts, " "))
}

func (m RootModel) viewMissingDetails() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		ErrorStyle.Render(session.ScreenMissingDetails.String()),
		"",
		lipgloss.NewStyle().Foreground(ColorLightGray).Render("Set wifi_ssid, wifi_password and github_username in"),
		lipgloss.NewStyle().Foreground(ColorNeonCyan).Render(config.GetSecretsPath()),
		lipgloss.NewStyle().Foreground(ColorLightGray).Render("or export TIMELINE_WIFI_SSID, TIMELINE_GITHUB_USERNAME."),
		lipgloss.NewStyle().Foreground(ColorGray).Render("On a desktop any active network satisfies wifi_ssid (\"*\" also works)."),
		"",
		lipgloss.NewStyle().Foreground(ColorGray).Render("[q] Quit"),
	)
	return m.placeModal(content, ColorRed)
}

func (m RootModel) viewConnectionFailed() string {
	reason := "Could not join " + m.snap.Target
	if m.snap.Err != nil {
		reason = m.snap.Err.Error()
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		ErrorStyle.Render(session.ScreenConnectionFailed.String()),
		"",
		lipgloss.NewStyle().Foreground(ColorLightGray).Render(truncateString(reason, 60)),
		"",
		lipgloss.NewStyle().Foreground(ColorGray).Render("[r] Retry  [q] Quit"),
	)
	return m.placeModal(content, ColorRed)
}

func (m RootModel) placeModal(content string, border lipgloss.Color) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(border).
			Padding(1, 3).
			Render(content),
	)
}

func truncateString(s string, i int) string {
	if i < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i]) + "..."
	}
	return s
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// titleRight: if true, title appears on the right side; if false, title appears on the left
// Example (left):  ╭─ TITLE ─────────────────────────────────╮
// Example (right): ╭─────────────────────────────────── TITLE ─╮
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.Color, titleRight bool) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	titleText := fmt.Sprintf(" %s ", title)
	remainingWidth := innerWidth - lipgloss.Width(titleText) - 1
	if remainingWidth < 0 {
		remainingWidth = 0
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(ColorNeonCyan).Bold(true)

	var topBorder string
	if titleRight {
		topBorder = borderStyle.Render(topLeft+strings.Repeat(horizontal, remainingWidth)) +
			titleStyle.Render(titleText) +
			borderStyle.Render(horizontal+topRight)
	} else {
		topBorder = borderStyle.Render(topLeft+horizontal) +
			titleStyle.Render(titleText) +
			borderStyle.Render(strings.Repeat(horizontal, remainingWidth)+topRight)
	}

	bottomBorder := borderStyle.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	contentLines := strings.Split(content, "\n")
	innerHeight := height - 2

	var wrappedLines []string
	for i := 0; i < innerHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lineWidth := lipgloss.Width(line)
		if lineWidth < innerWidth {
			line += strings.Repeat(" ", innerWidth-lineWidth)
		} else if lineWidth > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		wrappedLines = append(wrappedLines, borderStyle.Render(vertical)+line+borderStyle.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		topBorder,
		strings.Join(wrappedLines, "\n"),
		bottomBorder,
	)
}
