package events

import "context"

// TurnScope identifies the chat turn a model call is made for. Callback
// handlers read it to attribute LLM events to a session and to the response
// mode the classifier picked.
type TurnScope struct {
	SessionID string
	Verdict   string // "simple" or "complex"
}

type turnScopeKey struct{}

// WithTurn returns a context carrying the turn scope.
func WithTurn(ctx context.Context, scope TurnScope) context.Context {
	return context.WithValue(ctx, turnScopeKey{}, scope)
}

// TurnFromContext returns the turn scope, if any.
func TurnFromContext(ctx context.Context) (TurnScope, bool) {
	scope, ok := ctx.Value(turnScopeKey{}).(TurnScope)
	return scope, ok
}

// SessionIDFromContext returns the scoped session ID, or "".
func SessionIDFromContext(ctx context.Context) string {
	scope, _ := TurnFromContext(ctx)
	return scope.SessionID
}
