package profile

import "github.com/timeline-badge/timeline/internal/engine/types"

// Grid is a 7 x W matrix of activity levels in [0,4]. Rows are days of the
// week, columns are weeks (oldest first).
type Grid struct {
	weeks int
	cells [types.DaysPerWeek][]int
}

// NewGrid allocates a zeroed grid.
func NewGrid(weeks int) *Grid {
	g := &Grid{weeks: weeks}
	for d := range g.cells {
		g.cells[d] = make([]int, weeks)
	}
	return g
}

// Weeks returns the number of columns.
func (g *Grid) Weeks() int { return g.weeks }

// Level returns the level at (day, week), 0 when out of range.
func (g *Grid) Level(day, week int) int {
	if !g.inRange(day, week) {
		return 0
	}
	return g.cells[day][week]
}

// Set stores a level, clamped to [0,4]. Out-of-range cells are ignored and
// reported as false.
func (g *Grid) Set(day, week, level int) bool {
	if !g.inRange(day, week) {
		return false
	}
	if level < 0 {
		level = 0
	}
	if level > types.MaxLevel {
		level = types.MaxLevel
	}
	g.cells[day][week] = level
	return true
}

// Clear resets every cell to 0.
func (g *Grid) Clear() {
	for d := range g.cells {
		for w := range g.cells[d] {
			g.cells[d][w] = 0
		}
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	cp := &Grid{weeks: g.weeks}
	for d := range g.cells {
		cp.cells[d] = append([]int(nil), g.cells[d]...)
	}
	return cp
}

func (g *Grid) inRange(day, week int) bool {
	return day >= 0 && day < types.DaysPerWeek && week >= 0 && week < g.weeks
}
