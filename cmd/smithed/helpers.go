package main

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Smithed-MC/UX/pkg/commands"
)

func describe(err error) string { return commands.Describe(err) }

// renderMarkdown converts markdown text to terminal-formatted output. It
// falls back to the plain text if the renderer is unavailable.
func renderMarkdown(text string, width int) string {
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
