package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/feedback"
	"github.com/threatthriver/thinkchat/internal/gateway/ws"
	"github.com/threatthriver/thinkchat/internal/sessions"
)

var (
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("empty message")
	// ErrFeedbackDisabled is returned when no feedback store is configured.
	ErrFeedbackDisabled = errors.New("feedback storage is not configured")
)

// ChatHandler implements ws.Handler on top of the shell and session store.
type ChatHandler struct {
	store    sessions.Store
	shell    *chat.Shell
	bus      *events.Bus
	feedback *feedback.Store
	now      func() time.Time
}

// NewChatHandler creates a handler. fb may be nil to disable feedback.
func NewChatHandler(store sessions.Store, shell *chat.Shell, bus *events.Bus, fb *feedback.Store) *ChatHandler {
	return &ChatHandler{
		store:    store,
		shell:    shell,
		bus:      bus,
		feedback: fb,
		now:      time.Now,
	}
}

func (h *ChatHandler) publish(sessionID string, payload events.EventPayload) {
	h.bus.Publish(events.NewTypedEventWithSession(events.SourceGateway, payload, sessionID))
}

// OpenSession resumes a live session or starts a new one when id is empty
// or has expired.
func (h *ChatHandler) OpenSession(_ context.Context, id string) (ws.SessionInfo, error) {
	if id != "" {
		if sess, err := h.store.Get(id); err == nil {
			return h.info(sess), nil
		}
	}

	sess, err := h.store.Create()
	if err != nil {
		return ws.SessionInfo{}, fmt.Errorf("create session: %w", err)
	}
	info := h.info(sess)
	h.publish(sess.ID, events.SessionCreatedPayload{Mode: info.Mode, Greeting: info.Greeting})
	return info, nil
}

func (h *ChatHandler) info(sess *chat.Session) ws.SessionInfo {
	return ws.SessionInfo{
		SessionID: sess.ID,
		Mode:      string(sess.Mode()),
		Greeting:  chat.Greeting(h.now()),
		Turns:     sess.Len(),
	}
}

// SendMessage runs one interaction cycle.
func (h *ChatHandler) SendMessage(ctx context.Context, sessionID, content string) (chat.Turn, error) {
	if strings.TrimSpace(content) == "" {
		return chat.Turn{}, ErrEmptyMessage
	}
	sess, err := h.store.Get(sessionID)
	if err != nil {
		return chat.Turn{}, err
	}

	h.publish(sessionID, events.UserMessagePayload{Content: content})
	turn, err := h.shell.Send(ctx, sess, content, newBusSurface(h.bus, sessionID))
	return h.settle(sessionID, turn, err)
}

// Retry reruns the cycle for the unanswered last user turn.
func (h *ChatHandler) Retry(ctx context.Context, sessionID string) (chat.Turn, error) {
	sess, err := h.store.Get(sessionID)
	if err != nil {
		return chat.Turn{}, err
	}

	turn, err := h.shell.Retry(ctx, sess, newBusSurface(h.bus, sessionID))
	if errors.Is(err, chat.ErrNothingToRetry) {
		return chat.Turn{}, err
	}
	return h.settle(sessionID, turn, err)
}

func (h *ChatHandler) settle(sessionID string, turn chat.Turn, err error) (chat.Turn, error) {
	var endpointErr *chat.EndpointError
	if errors.As(err, &endpointErr) {
		h.publish(sessionID, events.AssistantErrorPayload{
			Error:     endpointErr.Err.Error(),
			Notice:    chat.FailureNotice,
			Retryable: true,
		})
		return chat.Turn{}, err
	}
	if err != nil {
		return chat.Turn{}, err
	}
	h.publish(sessionID, events.AssistantMessagePayload{Content: turn.Content, Thinking: turn.Thinking})
	return turn, nil
}

// SetMode changes the session's classification mode.
func (h *ChatHandler) SetMode(_ context.Context, sessionID, mode string) (chat.Mode, error) {
	m, err := chat.ParseMode(mode)
	if err != nil {
		return "", err
	}
	sess, err := h.store.Get(sessionID)
	if err != nil {
		return "", err
	}
	sess.SetMode(m)
	h.publish(sessionID, events.SessionModePayload{Mode: string(m)})
	return m, nil
}

// ClearHistory empties the session's conversation.
func (h *ChatHandler) ClearHistory(_ context.Context, sessionID string) error {
	sess, err := h.store.Get(sessionID)
	if err != nil {
		return err
	}
	turns := sess.Len()
	sess.Clear()
	h.publish(sessionID, events.SessionClearedPayload{Turns: turns})
	return nil
}

// History returns the session's turns.
func (h *ChatHandler) History(_ context.Context, sessionID string) ([]chat.Turn, error) {
	sess, err := h.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History(), nil
}

// SubmitFeedback stores a rating for the session.
func (h *ChatHandler) SubmitFeedback(ctx context.Context, sessionID, rating, comment string) (ws.FeedbackResult, error) {
	if h.feedback == nil {
		return ws.FeedbackResult{}, ErrFeedbackDisabled
	}
	r, err := feedback.ParseRating(rating)
	if err != nil {
		return ws.FeedbackResult{}, err
	}
	entry, err := h.feedback.Submit(ctx, sessionID, r, comment)
	if err != nil {
		return ws.FeedbackResult{}, err
	}
	h.publish(sessionID, events.FeedbackSubmittedPayload{FeedbackID: entry.ID, Rating: string(r)})
	return ws.FeedbackResult{ID: entry.ID, Message: feedback.Acknowledgement(r)}, nil
}
