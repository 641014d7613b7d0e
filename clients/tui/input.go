package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg is sent when the user presses Enter to submit input.
type SubmitMsg struct {
	Content string
}

// Input wraps a textarea with Enter-to-submit semantics and a recall history.
type Input struct {
	textarea textarea.Model
	enabled  bool
	history  []string
	histIdx  int
	draft    string
}

// NewInput creates a new input line.
func NewInput() Input {
	ta := textarea.New()
	ta.Placeholder = "Ask anything, or /help"
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	return Input{
		textarea: ta,
		enabled:  true,
		histIdx:  -1,
	}
}

// SetWidth sets the input width.
func (in *Input) SetWidth(w int) {
	in.textarea.SetWidth(w)
}

// SetEnabled enables or disables the input.
func (in *Input) SetEnabled(enabled bool) {
	in.enabled = enabled
	if enabled {
		in.textarea.Focus()
	} else {
		in.textarea.Blur()
	}
}

// Enabled returns whether the input is active.
func (in *Input) Enabled() bool {
	return in.enabled
}

// Update handles key events. Up and Down walk the submitted history.
func (in Input) Update(msg tea.Msg) (Input, tea.Cmd) {
	if !in.enabled {
		return in, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			content := strings.TrimSpace(in.textarea.Value())
			if content == "" {
				return in, nil
			}
			in.history = append(in.history, content)
			in.histIdx = -1
			in.draft = ""
			in.textarea.Reset()
			return in, func() tea.Msg { return SubmitMsg{Content: content} }

		case tea.KeyUp:
			if len(in.history) == 0 {
				break
			}
			if in.histIdx == -1 {
				in.draft = in.textarea.Value()
				in.histIdx = len(in.history) - 1
			} else if in.histIdx > 0 {
				in.histIdx--
			}
			in.textarea.SetValue(in.history[in.histIdx])
			return in, nil

		case tea.KeyDown:
			if in.histIdx == -1 {
				break
			}
			if in.histIdx < len(in.history)-1 {
				in.histIdx++
				in.textarea.SetValue(in.history[in.histIdx])
			} else {
				in.histIdx = -1
				in.textarea.SetValue(in.draft)
			}
			return in, nil
		}
	}

	var cmd tea.Cmd
	in.textarea, cmd = in.textarea.Update(msg)
	return in, cmd
}

// View renders the input line between two separators.
func (in Input) View() string {
	sep := InputSeparatorStyle.Render(strings.Repeat("─", max(in.textarea.Width(), 1)))
	return sep + "\n" + in.textarea.View() + "\n" + sep
}
