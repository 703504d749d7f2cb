// Package goldmark renders model replies written in markdown to ANSI-styled
// terminal output, using goldmark (with the GFM extensions) for parsing and
// lipgloss for styling.
package goldmark

import "github.com/fwojciec/llmlab"

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, list items and quotes are word-wrapped to width. Code blocks
// and tables are rendered without reflow.
func Render(source string, width int, theme llmlab.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	r := newRenderer(theme)
	return r.render([]byte(source), width)
}
