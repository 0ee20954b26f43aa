package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/profile"
)

var palette = [5]lipgloss.Color{"#000000", "#111111", "#222222", "#333333", "#444444"}

func TestHeatmap_RowsAndColumns(t *testing.T) {
	g := profile.NewGrid(10)
	m := NewHeatmapModel(g, palette, 100)

	lines := strings.Split(m.View(), "\n")
	require.Len(t, lines, types.DaysPerWeek)
	for _, l := range lines {
		assert.Equal(t, 10, strings.Count(l, cellGlyph))
	}
}

func TestHeatmap_NarrowKeepsRecentWeeks(t *testing.T) {
	g := profile.NewGrid(53)
	m := NewHeatmapModel(g, palette, 20)

	assert.Equal(t, 10, m.Columns())
	lines := strings.Split(m.View(), "\n")
	assert.Equal(t, 10, strings.Count(lines[0], cellGlyph))
}

func TestHeatmap_NilGrid(t *testing.T) {
	m := NewHeatmapModel(nil, palette, 40)
	assert.Equal(t, 0, m.Columns())
	assert.Empty(t, m.View())
	assert.Contains(t, m.Legend(), "less")
}
