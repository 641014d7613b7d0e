package events

import (
	"context"
	"testing"
)

func TestWithTurn(t *testing.T) {
	ctx := WithTurn(context.Background(), TurnScope{SessionID: "sess_abc123", Verdict: "complex"})

	scope, ok := TurnFromContext(ctx)
	if !ok {
		t.Fatal("expected a turn scope")
	}
	if scope.SessionID != "sess_abc123" || scope.Verdict != "complex" {
		t.Errorf("scope = %+v", scope)
	}
	if got := SessionIDFromContext(ctx); got != "sess_abc123" {
		t.Errorf("session id = %q", got)
	}
}

func TestWithTurn_InnerScopeWins(t *testing.T) {
	outer := WithTurn(context.Background(), TurnScope{SessionID: "sess_1", Verdict: "simple"})
	inner := WithTurn(outer, TurnScope{SessionID: "sess_1", Verdict: "complex"})

	if scope, _ := TurnFromContext(inner); scope.Verdict != "complex" {
		t.Errorf("verdict = %q, want complex", scope.Verdict)
	}
	if scope, _ := TurnFromContext(outer); scope.Verdict != "simple" {
		t.Errorf("outer verdict changed to %q", scope.Verdict)
	}
}

func TestTurnFromEmptyContext(t *testing.T) {
	if _, ok := TurnFromContext(context.Background()); ok {
		t.Error("expected no scope")
	}
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}
