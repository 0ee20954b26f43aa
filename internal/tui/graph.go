package tui

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderAvatar draws img as half-block art: each cell is "▀" with the upper
// pixel as foreground and the lower one as background, so a cols x rows block
// covers cols x rows*2 samples. Nearest-neighbour sampling.
func renderAvatar(img image.Image, cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	if img == nil {
		return renderAvatarPlaceholder(cols, rows)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return renderAvatarPlaceholder(cols, rows)
	}

	sample := func(x, y int) lipgloss.Color {
		px := bounds.Min.X + x*bounds.Dx()/cols
		py := bounds.Min.Y + y*bounds.Dy()/(rows*2)
		r, g, b, _ := img.At(px, py).RGBA()
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
	}

	var s strings.Builder
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			style := lipgloss.NewStyle().
				Foreground(sample(col, row*2)).
				Background(sample(col, row*2+1))
			s.WriteString(style.Render("▀"))
		}
		if row < rows-1 {
			s.WriteRune('\n')
		}
	}
	return s.String()
}

// renderAvatarPlaceholder is a dashed frame the size of the avatar block.
func renderAvatarPlaceholder(cols, rows int) string {
	style := lipgloss.NewStyle().Foreground(ColorGray)
	lines := make([]string, rows)
	for i := range lines {
		if i == rows/2 {
			label := "?"
			pad := (cols - 1) / 2
			lines[i] = strings.Repeat("╌", pad) + label + strings.Repeat("╌", cols-pad-1)
			continue
		}
		lines[i] = strings.Repeat("╌", cols)
	}
	return style.Render(strings.Join(lines, "\n"))
}
