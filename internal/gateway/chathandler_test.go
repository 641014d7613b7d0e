package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
)

func eventTypes(evts []events.Event) []events.EventType {
	out := make([]events.EventType, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}

func TestChatHandler_OpenSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	info, err := env.handler.OpenSession(ctx, "")
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if info.SessionID == "" || info.Mode != "auto" || info.Greeting == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	again, err := env.handler.OpenSession(ctx, info.SessionID)
	if err != nil || again.SessionID != info.SessionID {
		t.Fatalf("expected to resume %s, got %+v (%v)", info.SessionID, again, err)
	}

	fresh, _ := env.handler.OpenSession(ctx, "sess_expired")
	if fresh.SessionID == "sess_expired" || fresh.SessionID == info.SessionID {
		t.Fatalf("expected a new session, got %s", fresh.SessionID)
	}
}

func TestChatHandler_SendMessagePublishesBlocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	info, _ := env.handler.OpenSession(ctx, "")

	turn, err := env.handler.SendMessage(ctx, info.SessionID, "hi")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if turn.Content != "Hello world" {
		t.Fatalf("unexpected turn %+v", turn)
	}
	env.bus.Close()

	var sessionEvents []events.Event
	for _, e := range env.bus.History(100) {
		if e.SessionID == info.SessionID {
			sessionEvents = append(sessionEvents, e)
		}
	}
	got := eventTypes(sessionEvents)
	want := []events.EventType{
		events.EventSessionCreated,
		events.EventUserMessage,
		events.EventBlockAppend, // user block
		events.EventBlockAppend, // "Hello"
		events.EventBlockUpdate, // "Hello world"
		events.EventBlockUpdate, // final redraw
		events.EventAssistantMessage,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	msg, _ := events.GetAssistantMessagePayload(sessionEvents[len(sessionEvents)-1])
	if msg.Content != "Hello world" {
		t.Fatalf("assistant.message content = %q", msg.Content)
	}
}

func TestChatHandler_EmptyMessage(t *testing.T) {
	env := newTestEnv(t)
	info, _ := env.handler.OpenSession(context.Background(), "")

	if _, err := env.handler.SendMessage(context.Background(), info.SessionID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestChatHandler_EndpointErrorThenRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	info, _ := env.handler.OpenSession(ctx, "")

	env.model.err = errors.New("429 too many requests")
	_, err := env.handler.SendMessage(ctx, info.SessionID, "hi")
	var endpointErr *chat.EndpointError
	if !errors.As(err, &endpointErr) {
		t.Fatalf("expected EndpointError, got %v", err)
	}

	hist, _ := env.handler.History(ctx, info.SessionID)
	if len(hist) != 1 || hist[0].Role != chat.RoleUser {
		t.Fatalf("no assistant turn may be committed, history = %+v", hist)
	}

	env.model.err = nil
	turn, err := env.handler.Retry(ctx, info.SessionID)
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if turn.Content != "Hello world" {
		t.Fatalf("unexpected retry turn %+v", turn)
	}
	hist, _ = env.handler.History(ctx, info.SessionID)
	if len(hist) != 2 {
		t.Fatalf("expected user+assistant after retry, got %d turns", len(hist))
	}

	if _, err := env.handler.Retry(ctx, info.SessionID); !errors.Is(err, chat.ErrNothingToRetry) {
		t.Fatalf("expected ErrNothingToRetry, got %v", err)
	}

	env.bus.Close()
	var sawError bool
	for _, e := range env.bus.History(100) {
		if p, ok := events.GetAssistantErrorPayload(e); ok {
			sawError = true
			if p.Notice != chat.FailureNotice || !p.Retryable {
				t.Fatalf("unexpected error payload %+v", p)
			}
		}
	}
	if !sawError {
		t.Fatal("expected an assistant.error event")
	}
}

func TestChatHandler_ModeAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	info, _ := env.handler.OpenSession(ctx, "")

	if _, err := env.handler.SetMode(ctx, info.SessionID, "loud"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	mode, err := env.handler.SetMode(ctx, info.SessionID, "Complex")
	if err != nil || mode != chat.ModeComplex {
		t.Fatalf("SetMode = %q, %v", mode, err)
	}

	env.handler.SendMessage(ctx, info.SessionID, "hi")
	if err := env.handler.ClearHistory(ctx, info.SessionID); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if err := env.handler.ClearHistory(ctx, info.SessionID); err != nil {
		t.Fatalf("second ClearHistory: %v", err)
	}
	hist, _ := env.handler.History(ctx, info.SessionID)
	if len(hist) != 0 {
		t.Fatalf("expected empty history, got %d", len(hist))
	}

	reopened, _ := env.handler.OpenSession(ctx, info.SessionID)
	if reopened.Mode != "complex" {
		t.Fatalf("mode should survive a clear, got %q", reopened.Mode)
	}
}

func TestChatHandler_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.handler.SendMessage(context.Background(), "sess_nope", "hi"); err == nil {
		t.Fatal("expected error for unknown session")
	}
}

func TestChatHandler_FeedbackDisabled(t *testing.T) {
	env := newTestEnv(t)
	h := NewChatHandler(env.store, nil, env.bus, nil)
	if _, err := h.SubmitFeedback(context.Background(), "", "Good", ""); !errors.Is(err, ErrFeedbackDisabled) {
		t.Fatalf("expected ErrFeedbackDisabled, got %v", err)
	}
}
