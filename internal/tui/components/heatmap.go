package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
)

const cellGlyph = "■"

// HeatmapModel renders the activity grid, one row per weekday and one
// column per week, most recent week on the right.
type HeatmapModel struct {
	Grid    *profile.Grid
	Palette [5]lipgloss.Color
	Width   int // UI render width (columns * 2)
}

// NewHeatmapModel creates a heatmap for grid clipped to width cells.
func NewHeatmapModel(grid *profile.Grid, palette [5]lipgloss.Color, width int) HeatmapModel {
	return HeatmapModel{Grid: grid, Palette: palette, Width: width}
}

// Columns returns how many weeks fit in the render width.
func (m HeatmapModel) Columns() int {
	if m.Grid == nil {
		return 0
	}
	cols := m.Width / 2
	if cols < 1 {
		cols = 1
	}
	if cols > m.Grid.Weeks() {
		cols = m.Grid.Weeks()
	}
	return cols
}

// View renders the grid. A narrow view drops the oldest weeks.
func (m HeatmapModel) View() string {
	cols := m.Columns()
	if cols == 0 {
		return ""
	}
	first := m.Grid.Weeks() - cols

	styles := make([]lipgloss.Style, len(m.Palette))
	for i, c := range m.Palette {
		styles[i] = lipgloss.NewStyle().Foreground(c)
	}

	var b strings.Builder
	for day := 0; day < types.DaysPerWeek; day++ {
		for week := first; week < m.Grid.Weeks(); week++ {
			level := m.Grid.Level(day, week)
			b.WriteString(styles[level].Render(cellGlyph))
			if week < m.Grid.Weeks()-1 {
				b.WriteByte(' ')
			}
		}
		if day < types.DaysPerWeek-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Legend renders the "less ... more" scale.
func (m HeatmapModel) Legend() string {
	var cells []string
	for _, c := range m.Palette {
		cells = append(cells, lipgloss.NewStyle().Foreground(c).Render(cellGlyph))
	}
	return "less " + strings.Join(cells, " ") + " more"
}
