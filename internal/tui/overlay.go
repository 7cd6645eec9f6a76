package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var popupStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	Padding(1, 3)

// renderPopup draws popup in a bordered card centered over base, which is
// clipped or padded to width x height cells.
func renderPopup(base, popup string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := lines(base, height)
	for i := range canvas {
		canvas[i] = fitWidth(canvas[i], width)
	}

	card := lines(popupStyle.Render(popup), 0)
	cardWidth := 0
	for _, l := range card {
		cardWidth = max(cardWidth, ansi.StringWidth(l))
	}
	x := max(0, (width-cardWidth)/2)
	y := max(0, (height-len(card))/2)

	for i, l := range card {
		row := y + i
		if row >= len(canvas) {
			break
		}
		under := canvas[row]
		left := fitWidth(ansi.Truncate(under, x, ""), x)
		mid := fitWidth(l, cardWidth)
		right := skipColumns(under, x+cardWidth)
		canvas[row] = ansi.Truncate(left+mid+right, width, "")
	}
	return strings.Join(canvas, "\n")
}

// lines splits s, clipping or padding to height rows when height > 0.
func lines(s string, height int) []string {
	out := strings.Split(s, "\n")
	if height <= 0 {
		return out
	}
	if len(out) > height {
		return out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return out
}

// fitWidth truncates or pads s to exactly width cells.
func fitWidth(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func skipColumns(s string, cols int) string {
	if cols <= 0 {
		return s
	}
	return strings.TrimPrefix(s, ansi.Truncate(s, cols, ""))
}
