package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/threatthriver/thinkchat/internal/gateway/ws"
)

// Gateway is the subset of the WS client the TUI drives. Each call returns
// the id of the request it wrote.
type Gateway interface {
	SessionID() string
	SendMessage(content string) (string, error)
	Retry() (string, error)
	SetMode(mode string) (string, error)
	ClearHistory() (string, error)
	SubmitFeedback(rating, comment string) (string, error)
}

// requestSentMsg records which method a request id belongs to.
type requestSentMsg struct {
	id     string
	method ws.Method
}

const helpText = `Commands:
  /mode [auto|simple|complex]  show or change how questions are classified
  /retry                       answer the last message again
  /clear                       clear the chat history
  /feedback <good|neutral|bad> [comment]
  /session, /status, /help, /quit
Keys: ctrl+t toggle thinking, pgup/pgdown scroll, ctrl+c quit`

// App is the main TUI application model.
// Layout: TRANSCRIPT | INPUT | STATUS
type App struct {
	transcript Transcript
	input      Input
	spinner    spinner.Model

	width    int
	height   int
	busy     bool
	quitting bool

	mode      string
	model     string
	tokensIn  int
	tokensOut int
	connErr   error

	pending map[string]ws.Method
	client  Gateway
}

// NewApp creates the TUI model for an opened session.
func NewApp(client Gateway, info ws.SessionInfo) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAssistant)

	t := NewTranscript(80, 20)
	t.SetGreeting(info.Greeting)

	mode := info.Mode
	if mode == "" {
		mode = "auto"
	}
	return &App{
		transcript: t,
		input:      NewInput(),
		spinner:    sp,
		mode:       mode,
		pending:    map[string]ws.Method{},
		client:     client,
	}
}

// Init starts the spinner ticks.
func (a *App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages and updates state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "ctrl+t":
			a.transcript.ToggleThinking()
			return a, nil
		case "pgup":
			a.transcript.PageUp()
			return a, nil
		case "pgdown":
			a.transcript.PageDown()
			return a, nil
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case SubmitMsg:
		return a, a.handleSubmit(msg.Content)

	case requestSentMsg:
		a.pending[msg.id] = msg.method
		return a, nil

	case sendErrorMsg:
		a.busy = false
		a.transcript.Append("", KindSystem, fmt.Sprintf("Send error: %v", msg.err))
		return a, nil

	case BlockAppendMsg:
		a.transcript.Append(msg.ID, msg.Kind, msg.Text)
		return a, nil

	case BlockUpdateMsg:
		a.transcript.Update(msg.ID, msg.Text)
		return a, nil

	case BlockRemoveMsg:
		a.transcript.Remove(msg.ID)
		return a, nil

	case AssistantDoneMsg:
		a.busy = false
		return a, nil

	case AssistantErrorMsg:
		a.busy = false
		return a, nil

	case SessionModeMsg:
		a.mode = msg.Mode
		return a, nil

	case SessionClearedMsg:
		a.transcript.Clear()
		return a, nil

	case ResponseMsg:
		a.handleResponse(msg)
		return a, nil

	case LLMTelemetryMsg:
		a.tokensIn += msg.TokensIn
		a.tokensOut += msg.TokensOut
		if msg.Model != "" {
			a.model = msg.Model
		}
		return a, nil

	case DisconnectedMsg:
		a.connErr = msg.Err
		a.busy = false
		a.input.SetEnabled(false)
		a.transcript.Append("", KindSystem, fmt.Sprintf("Disconnected: %v", msg.Err))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.transcript, cmd = a.transcript.UpdateViewport(msg)
	return a, cmd
}

func (a *App) updateSizes() {
	inputHeight := 3 // sep + input + sep
	statusHeight := 1
	h := a.height - inputHeight - statusHeight
	if h < 3 {
		h = 3
	}
	a.transcript.SetSize(a.width, h)
	a.input.SetWidth(a.width)
}

// request wraps a client call in a command that reports the request id.
func (a *App) request(method ws.Method, call func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		id, err := call()
		if err != nil {
			return sendErrorMsg{err: err}
		}
		return requestSentMsg{id: id, method: method}
	}
}

func (a *App) handleSubmit(text string) tea.Cmd {
	if strings.HasPrefix(text, "/") {
		return a.handleSlashCommand(text)
	}
	if a.busy {
		a.transcript.Append("", KindSystem, "Still answering the previous message.")
		return nil
	}
	a.busy = true
	client := a.client
	return a.request(ws.MethodSendMessage, func() (string, error) { return client.SendMessage(text) })
}

func (a *App) handleSlashCommand(cmd string) tea.Cmd {
	parts := strings.Fields(cmd)
	command := parts[0]
	args := parts[1:]
	client := a.client

	switch command {
	case "/quit", "/exit":
		a.quitting = true
		return tea.Quit

	case "/help":
		a.transcript.Append("", KindSystem, helpText)

	case "/mode":
		if len(args) == 0 {
			a.transcript.Append("", KindSystem, "Mode: "+a.mode)
			return nil
		}
		mode := args[0]
		return a.request(ws.MethodSetMode, func() (string, error) { return client.SetMode(mode) })

	case "/clear":
		return a.request(ws.MethodClearHistory, client.ClearHistory)

	case "/retry":
		if a.busy {
			a.transcript.Append("", KindSystem, "Still answering the previous message.")
			return nil
		}
		a.busy = true
		return a.request(ws.MethodRetry, client.Retry)

	case "/feedback":
		if len(args) == 0 {
			a.transcript.Append("", KindSystem, "Usage: /feedback <good|neutral|bad> [comment]")
			return nil
		}
		rating, comment := args[0], strings.Join(args[1:], " ")
		return a.request(ws.MethodSubmitFeedback, func() (string, error) { return client.SubmitFeedback(rating, comment) })

	case "/session":
		a.transcript.Append("", KindSystem, "Session: "+client.SessionID())

	case "/status":
		info := fmt.Sprintf("Session: %s\nMode: %s\nModel: %s\nTokens: %d in / %d out",
			client.SessionID(), a.mode, a.model, a.tokensIn, a.tokensOut)
		if a.connErr != nil {
			info += fmt.Sprintf("\nConnection: disconnected (%v)", a.connErr)
		} else {
			info += "\nConnection: connected"
		}
		a.transcript.Append("", KindSystem, info)

	default:
		a.transcript.Append("", KindSystem, fmt.Sprintf("Unknown command: %s (try /help)", command))
	}
	return nil
}

// endpointErrorPrefix marks failures already shown as a notice block.
const endpointErrorPrefix = "completion endpoint:"

func (a *App) handleResponse(msg ResponseMsg) {
	method, ok := a.pending[msg.ID]
	if !ok {
		return
	}
	delete(a.pending, msg.ID)

	if !msg.OK {
		if method == ws.MethodSendMessage || method == ws.MethodRetry {
			a.busy = false
			if strings.HasPrefix(msg.Error, endpointErrorPrefix) {
				return
			}
		}
		a.transcript.Append("", KindSystem, "Error: "+msg.Error)
		return
	}

	switch method {
	case ws.MethodSendMessage, ws.MethodRetry:
		a.busy = false
	case ws.MethodSetMode:
		var p ws.SetModeParams
		if json.Unmarshal(msg.Payload, &p) == nil && p.Mode != "" {
			a.mode = p.Mode
			a.transcript.Append("", KindSystem, "Mode set to "+p.Mode)
		}
	case ws.MethodSubmitFeedback:
		var res ws.FeedbackResult
		if json.Unmarshal(msg.Payload, &res) == nil {
			a.transcript.Append("", KindSystem, res.Message)
		}
	}
}

// View renders the application: TRANSCRIPT | INPUT | STATUS.
func (a *App) View() string {
	if a.quitting {
		return "Goodbye!\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		a.transcript.View(),
		a.input.View(),
		a.statusLine(),
	)
}

func (a *App) statusLine() string {
	state := "ready"
	if a.busy {
		state = a.spinner.View() + " answering"
	}
	if a.connErr != nil {
		state = "disconnected"
	}
	parts := []string{"thinkchat", a.client.SessionID(), "mode " + a.mode}
	if a.model != "" {
		parts = append(parts, a.model)
	}
	if a.tokensIn+a.tokensOut > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d tok", a.tokensIn, a.tokensOut))
	}
	parts = append(parts, state)
	return StatusBarStyle.Width(max(a.width, 1)).Render(strings.Join(parts, " · "))
}
