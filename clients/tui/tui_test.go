package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/gateway/ws"
)

type fakeGateway struct {
	calls []string
	err   error
}

func (f *fakeGateway) record(call string) (string, error) {
	f.calls = append(f.calls, call)
	if f.err != nil {
		return "", f.err
	}
	return "req-" + call, nil
}

func (f *fakeGateway) SessionID() string                          { return "sess_test" }
func (f *fakeGateway) SendMessage(content string) (string, error) { return f.record("send:" + content) }
func (f *fakeGateway) Retry() (string, error)                     { return f.record("retry") }
func (f *fakeGateway) SetMode(mode string) (string, error)        { return f.record("mode:" + mode) }
func (f *fakeGateway) ClearHistory() (string, error)              { return f.record("clear") }
func (f *fakeGateway) SubmitFeedback(rating, comment string) (string, error) {
	return f.record("feedback:" + rating + ":" + comment)
}

// run executes a command and feeds its message back into the app.
func run(a *App, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		a.Update(msg)
	}
}

func TestProjectBlockEvents(t *testing.T) {
	frame, _ := ws.NewEventFrame(string(events.EventBlockAppend), "sess_1", map[string]any{
		"block_id": "blk_1", "kind": "thinking", "text": "Step 1",
	})
	msg, ok := Project(frame).(BlockAppendMsg)
	if !ok || msg.ID != "blk_1" || msg.Kind != KindThinking || msg.Text != "Step 1" {
		t.Fatalf("unexpected projection %#v", Project(frame))
	}

	frame, _ = ws.NewEventFrame(string(events.EventLLMCall), "sess_1", map[string]any{"phase": "request"})
	if Project(frame) != nil {
		t.Fatal("request-phase telemetry should be ignored")
	}

	frame, _ = ws.NewEventFrame("unknown.event", "", map[string]any{})
	if Project(frame) != nil {
		t.Fatal("unknown events should be ignored")
	}
}

func TestProjectAndApplyBlockRemove(t *testing.T) {
	frame, _ := ws.NewEventFrame(string(events.EventBlockRemove), "sess_1", map[string]any{"block_id": "blk_t"})
	msg, ok := Project(frame).(BlockRemoveMsg)
	if !ok || msg.ID != "blk_t" {
		t.Fatalf("unexpected projection %#v", Project(frame))
	}

	a := NewApp(&fakeGateway{}, ws.SessionInfo{SessionID: "sess_test"})
	a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	a.Update(BlockAppendMsg{ID: "blk_t", Kind: KindThinking, Text: "streamed trace"})
	a.Update(BlockAppendMsg{ID: "blk_a", Kind: KindAssistant, Text: "answer"})
	a.Update(msg)

	if a.transcript.Len() != 1 {
		t.Fatalf("transcript has %d blocks, want 1", a.transcript.Len())
	}
	if strings.Contains(a.View(), "streamed trace") {
		t.Fatal("removed block still rendered")
	}
	if a.transcript.Remove("blk_t") {
		t.Fatal("removing twice should report false")
	}
}

func TestProjectResponse(t *testing.T) {
	frame, _ := ws.NewResponseFrame("req-1", false, nil, "boom")
	msg, ok := Project(frame).(ResponseMsg)
	if !ok || msg.ID != "req-1" || msg.OK || msg.Error != "boom" {
		t.Fatalf("unexpected projection %#v", msg)
	}
}

func TestAppSendAndBlocks(t *testing.T) {
	gw := &fakeGateway{}
	a := NewApp(gw, ws.SessionInfo{SessionID: "sess_test", Greeting: "Good Morning!"})
	a.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	_, cmd := a.Update(SubmitMsg{Content: "hello"})
	run(a, cmd)
	if len(gw.calls) != 1 || gw.calls[0] != "send:hello" || !a.busy {
		t.Fatalf("calls = %v busy = %v", gw.calls, a.busy)
	}

	// A second message while busy is refused.
	_, cmd = a.Update(SubmitMsg{Content: "again"})
	run(a, cmd)
	if len(gw.calls) != 1 {
		t.Fatalf("message sent while busy: %v", gw.calls)
	}

	a.Update(BlockAppendMsg{ID: "b1", Kind: KindAssistant, Text: "Hi"})
	a.Update(BlockUpdateMsg{ID: "b1", Text: "Hi there"})
	if !strings.Contains(a.View(), "there") {
		t.Fatal("updated block not rendered")
	}

	a.Update(AssistantDoneMsg{Content: "Hi there"})
	if a.busy {
		t.Fatal("still busy after the answer")
	}
}

func TestAppSlashCommands(t *testing.T) {
	gw := &fakeGateway{}
	a := NewApp(gw, ws.SessionInfo{SessionID: "sess_test"})

	for _, line := range []string{"/mode complex", "/clear", "/retry", "/feedback good very clear"} {
		_, cmd := a.Update(SubmitMsg{Content: line})
		run(a, cmd)
	}
	want := []string{"mode:complex", "clear", "retry", "feedback:good:very clear"}
	if len(gw.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", gw.calls, want)
	}
	for i := range want {
		if gw.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", gw.calls, want)
		}
	}

	a.Update(ResponseMsg{ID: "req-mode:complex", OK: true, Payload: []byte(`{"mode":"complex"}`)})
	if a.mode != "complex" {
		t.Fatalf("mode = %q", a.mode)
	}

	_, cmd := a.Update(SubmitMsg{Content: "/quit"})
	if cmd == nil || !a.quitting {
		t.Fatal("expected quit")
	}
}

func TestAppEndpointErrorNotDuplicated(t *testing.T) {
	gw := &fakeGateway{}
	a := NewApp(gw, ws.SessionInfo{SessionID: "sess_test"})

	_, cmd := a.Update(SubmitMsg{Content: "hello"})
	run(a, cmd)
	a.Update(BlockAppendMsg{ID: "n1", Kind: KindNotice, Text: "An error occurred while generating the response. Please try again."})
	a.Update(AssistantErrorMsg{Notice: "An error occurred", Error: "rate limited"})

	before := a.transcript.Len()
	a.Update(ResponseMsg{ID: "req-send:hello", OK: false, Error: "completion endpoint: rate limited"})
	if a.transcript.Len() != before {
		t.Fatal("endpoint failure shown twice")
	}
	if a.busy {
		t.Fatal("still busy after failure")
	}
}

func TestAppSendError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("closed")}
	a := NewApp(gw, ws.SessionInfo{SessionID: "sess_test"})

	_, cmd := a.Update(SubmitMsg{Content: "hello"})
	run(a, cmd)
	if a.busy {
		t.Fatal("busy after a failed send")
	}
}
