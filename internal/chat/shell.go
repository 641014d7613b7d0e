package chat

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/events"
)

// FailureNotice is shown when a response could not be generated.
const FailureNotice = "An error occurred while generating the response. Please try again."

// ErrNothingToRetry is returned by Retry when the newest turn is not an
// unanswered user turn.
var ErrNothingToRetry = errors.New("nothing to retry: last turn is not an unanswered user message")

// EndpointError reports a failed completion call or a stream that broke
// mid-flight. No assistant turn is committed when it is returned.
type EndpointError struct {
	Err error
}

func (e *EndpointError) Error() string { return "completion endpoint: " + e.Err.Error() }
func (e *EndpointError) Unwrap() error { return e.Err }

// ShellConfig wires a Shell.
type ShellConfig struct {
	Model        model.BaseChatModel
	Prompts      Prompts
	HistoryLimit int
	// TokenBudget bounds the estimated prompt size; 0 disables the guard.
	TokenBudget int
	// Options are passed to every Stream call (temperature, top_p, ...).
	Options []model.Option
	// MapError labels endpoint errors, e.g. models.HandleError.
	MapError func(error) error
	// Callbacks observe every completion call.
	Callbacks []callbacks.Handler
}

// Shell runs interaction cycles against one completion endpoint. It holds no
// conversation state; every call receives the session explicitly.
type Shell struct {
	model    model.BaseChatModel
	compose  ComposeOptions
	opts     []model.Option
	mapError func(error) error
	handlers []callbacks.Handler
}

// NewShell creates a Shell.
func NewShell(cfg ShellConfig) *Shell {
	mapErr := cfg.MapError
	if mapErr == nil {
		mapErr = func(err error) error { return err }
	}
	return &Shell{
		model:    cfg.Model,
		compose:  ComposeOptions{Prompts: cfg.Prompts, HistoryLimit: cfg.HistoryLimit, TokenBudget: cfg.TokenBudget},
		opts:     cfg.Options,
		mapError: mapErr,
		handlers: cfg.Callbacks,
	}
}

// Send runs one cycle for a new user prompt and returns the assistant turn.
func (sh *Shell) Send(ctx context.Context, sess *Session, prompt string, surface Surface) (Turn, error) {
	sess.cycle.Lock()
	defer sess.cycle.Unlock()

	sess.append(Turn{Role: RoleUser, Content: prompt})
	surface.AppendBlock(BlockUser, prompt)

	return sh.answer(ctx, sess, prompt, surface)
}

// Retry reruns the cycle for the trailing unanswered user turn without
// appending it again.
func (sh *Shell) Retry(ctx context.Context, sess *Session, surface Surface) (Turn, error) {
	sess.cycle.Lock()
	defer sess.cycle.Unlock()

	last, ok := sess.last()
	if !ok || last.Role != RoleUser {
		return Turn{}, ErrNothingToRetry
	}
	return sh.answer(ctx, sess, last.Content, surface)
}

func (sh *Shell) answer(ctx context.Context, sess *Session, prompt string, surface Surface) (Turn, error) {
	if reply, ok := Intercept(prompt); ok {
		t := Turn{Role: RoleAssistant, Content: reply}
		sess.append(t)
		surface.AppendBlock(BlockAssistant, reply)
		return t, nil
	}

	verdict := Classify(prompt, sess.Mode())
	msgs := Compose(verdict, sess.History(), sh.compose)
	slog.Debug("completion request", "session", sess.ID, "verdict", verdict, "messages", len(msgs))

	ctx = events.WithTurn(ctx, events.TurnScope{SessionID: sess.ID, Verdict: string(verdict)})
	if len(sh.handlers) > 0 {
		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      "chat",
			Component: components.ComponentOfChatModel,
		}, sh.handlers...)
	}
	sr, err := sh.model.Stream(ctx, msgs, sh.opts...)
	if err != nil {
		return Turn{}, sh.fail(sess, surface, err)
	}
	defer sr.Close()

	stream := NewStream(MessageSource(sr), verdict.IsComplex())
	view := newResponseView(surface)
	for u := range stream.Updates() {
		view.render(u)
	}

	res, err := stream.Result()
	if err != nil {
		return Turn{}, sh.fail(sess, surface, err)
	}
	view.finish(res)

	t := Turn{Role: RoleAssistant, Content: res.Answer, Thinking: res.Thinking}
	sess.append(t)
	return t, nil
}

func (sh *Shell) fail(sess *Session, surface Surface, err error) error {
	err = sh.mapError(err)
	slog.Error("completion failed", "session", sess.ID, "error", err)
	surface.AppendBlock(BlockNotice, FailureNotice)
	return &EndpointError{Err: err}
}

// responseView keeps the thinking and answer blocks of one response.
type responseView struct {
	surface  Surface
	thinking BlockID
	answer   BlockID
	hasThink bool
	hasAns   bool
}

func newResponseView(s Surface) *responseView {
	return &responseView{surface: s}
}

func (v *responseView) render(u Update) {
	switch u.Phase {
	case PhaseThinking:
		v.show(&v.thinking, &v.hasThink, BlockThinking, u.Text)
	case PhaseAnswer:
		v.show(&v.answer, &v.hasAns, BlockAssistant, u.Text)
	}
}

func (v *responseView) show(id *BlockID, exists *bool, kind BlockKind, text string) {
	if !*exists {
		*id = v.surface.AppendBlock(kind, text)
		*exists = true
		return
	}
	v.surface.UpdateBlock(*id, text)
}

// finish redraws both blocks with the final split. A complex response that
// never produced the marker has no trace: its live thinking block is removed
// where the surface allows it and otherwise left as streamed.
func (v *responseView) finish(res Result) {
	switch {
	case !v.hasThink:
	case res.Thinking != "":
		v.surface.UpdateBlock(v.thinking, res.Thinking)
	default:
		if r, ok := v.surface.(BlockRemover); ok {
			r.RemoveBlock(v.thinking)
		}
	}
	v.show(&v.answer, &v.hasAns, BlockAssistant, res.Answer)
}
