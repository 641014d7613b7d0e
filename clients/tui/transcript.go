package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Block kinds as published by the gateway.
const (
	KindUser      = "user"
	KindAssistant = "assistant"
	KindThinking  = "thinking"
	KindNotice    = "notice"
	KindSystem    = "system"
)

type block struct {
	id   string
	kind string
	text string
}

// Transcript is the scrollable list of conversation blocks. Blocks are
// addressed by the id the gateway assigned them so updates redraw in place.
type Transcript struct {
	viewport     viewport.Model
	blocks       []*block
	index        map[string]*block
	greeting     string
	showThinking bool
	width        int
}

// NewTranscript creates an empty transcript.
func NewTranscript(width, height int) Transcript {
	vp := viewport.New(width, height)
	// Scroll is handled explicitly via PageUp/PageDown in the main model.
	vp.KeyMap = viewport.KeyMap{}
	return Transcript{
		viewport:     vp,
		index:        map[string]*block{},
		showThinking: true,
		width:        width,
	}
}

// SetSize updates the viewport dimensions.
func (t *Transcript) SetSize(width, height int) {
	t.width = width
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// SetGreeting sets the line shown above the conversation.
func (t *Transcript) SetGreeting(g string) {
	t.greeting = g
	t.refresh()
}

// Append adds a block. Blocks without an id cannot be updated later.
func (t *Transcript) Append(id, kind, text string) {
	b := &block{id: id, kind: kind, text: text}
	t.blocks = append(t.blocks, b)
	if id != "" {
		t.index[id] = b
	}
	t.refresh()
}

// Update replaces the text of a known block.
func (t *Transcript) Update(id, text string) bool {
	b, ok := t.index[id]
	if !ok {
		return false
	}
	b.text = text
	t.refresh()
	return true
}

// Remove drops a known block.
func (t *Transcript) Remove(id string) bool {
	b, ok := t.index[id]
	if !ok {
		return false
	}
	delete(t.index, id)
	for i, cur := range t.blocks {
		if cur == b {
			t.blocks = append(t.blocks[:i], t.blocks[i+1:]...)
			break
		}
	}
	t.refresh()
	return true
}

// Clear removes every block.
func (t *Transcript) Clear() {
	t.blocks = nil
	t.index = map[string]*block{}
	t.refresh()
}

// ToggleThinking shows or hides reasoning traces.
func (t *Transcript) ToggleThinking() bool {
	t.showThinking = !t.showThinking
	t.refresh()
	return t.showThinking
}

// Len returns the number of blocks.
func (t *Transcript) Len() int { return len(t.blocks) }

// PageUp scrolls up by one page.
func (t *Transcript) PageUp() { t.viewport.PageUp() }

// PageDown scrolls down by one page.
func (t *Transcript) PageDown() { t.viewport.PageDown() }

func (t *Transcript) refresh() {
	var parts []string
	if t.greeting != "" {
		parts = append(parts, GreetingStyle.Render(t.greeting))
	}
	for _, b := range t.blocks {
		if s := t.render(b); s != "" {
			parts = append(parts, s)
		}
	}
	t.viewport.SetContent(strings.Join(parts, "\n\n"))
	t.viewport.GotoBottom()
}

func (t *Transcript) render(b *block) string {
	width := t.width - 2
	switch b.kind {
	case KindUser:
		return UserStyle.Render("You") + "\n" + b.text
	case KindAssistant:
		return AssistantStyle.Render("Assistant") + "\n" + RenderMarkdown(b.text, width)
	case KindThinking:
		label := ThinkingLabelStyle.Render("Thinking Process")
		if !t.showThinking {
			return label + MutedStyle.Render(" (hidden, ctrl+t to show)")
		}
		body := ThinkingBorderStyle.Width(max(width-2, 10)).Render(b.text)
		return lipgloss.JoinVertical(lipgloss.Left, label, body)
	case KindNotice:
		return ErrorStyle.Render(b.text) + "\n" + MutedStyle.Render("Type /retry to try again.")
	default:
		return MutedStyle.Render(b.text)
	}
}

// UpdateViewport handles viewport messages.
func (t Transcript) UpdateViewport(msg tea.Msg) (Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the viewport.
func (t Transcript) View() string {
	return t.viewport.View()
}
