// Package storage derives durable and aggregate state from bus events.
package storage

import (
	"log/slog"

	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/sessions"
)

// UsageTracker subscribes to LLM call events and accumulates token usage per session.
type UsageTracker struct {
	store       sessions.Store
	unsubscribe func()
}

// NewUsageTracker creates a UsageTracker that listens for LLM response events.
func NewUsageTracker(bus *events.Bus, store sessions.Store) *UsageTracker {
	ut := &UsageTracker{store: store}
	ut.unsubscribe = bus.Subscribe(ut.handleEvent, events.EventLLMCall)
	return ut
}

// Close unsubscribes the tracker from the event bus.
func (ut *UsageTracker) Close() {
	if ut.unsubscribe != nil {
		ut.unsubscribe()
	}
}

func (ut *UsageTracker) handleEvent(e events.Event) {
	if e.SessionID == "" {
		return
	}

	payload, ok := events.GetLLMCallPayload(e)
	if !ok || payload.Phase != "response" {
		return
	}
	if payload.TokensInput == 0 && payload.TokensOutput == 0 {
		return
	}

	sess, err := ut.store.Get(e.SessionID)
	if err != nil {
		slog.Debug("usage tracker: session not found", "session_id", e.SessionID, "error", err)
		return
	}
	sess.AddUsage(payload.TokensInput, payload.TokensOutput)
}
