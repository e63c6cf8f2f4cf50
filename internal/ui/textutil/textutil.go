// Package textutil measures and clips text by terminal columns.
package textutil

import (
	"github.com/mattn/go-runewidth"
)

// Ellipsis marks clipped text.
const Ellipsis = "…"

// Width returns the number of terminal columns s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate clips s to at most width columns, ending with Ellipsis when clipped.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if Width(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// Fit truncates or right-pads s to exactly width columns.
func Fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(Truncate(s, width), width)
}

// ClipLines truncates every line to width. A width <= 0 leaves lines unchanged.
func ClipLines(lines []string, width int) []string {
	if width <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Truncate(l, width)
	}
	return out
}
