package tui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
)

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

func uintPtr(u uint) *uint       { return &u }
func stringPtr(s string) *string { return &s }

// styleConfig starts from glamour's dark theme and aligns headings and
// strong text with the TUI palette.
func styleConfig() ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	cfg.Document.Margin = uintPtr(0)
	cfg.Document.BlockPrefix = ""
	cfg.Document.BlockSuffix = ""
	cfg.Heading.Color = stringPtr("#D8A6FF")
	cfg.H1.BackgroundColor = nil
	cfg.H1.Color = stringPtr("#D8A6FF")
	cfg.Strong.Color = stringPtr("#FFFFFF")
	return cfg
}

// markdownRenderer returns a cached renderer for the given wrap width.
func markdownRenderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	renderersMu.Lock()
	defer renderersMu.Unlock()
	if r, ok := renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(styleConfig()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return nil
	}
	renderers[width] = r
	return r
}

// RenderMarkdown renders text for the terminal, falling back to the raw text
// when rendering fails.
func RenderMarkdown(text string, width int) string {
	r := markdownRenderer(width)
	if r == nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	// Trim trailing newlines that glamour adds
	return strings.Trim(out, "\n")
}
