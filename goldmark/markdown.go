// Package goldmark turns the council's markdown message bodies into
// lipgloss-styled text suitable for a viewport.
package goldmark

import "github.com/mstolarz/council"

// Render converts markdown source into styled terminal output wrapped to
// width. A non-positive width falls back to 80 columns. Prose reflows;
// code blocks keep their original line breaks.
func Render(source string, width int, theme council.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
