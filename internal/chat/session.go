package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the explicit per-user context passed into every cycle: the
// conversation and the mode preference. One cycle runs at a time per session.
type Session struct {
	ID        string
	CreatedAt time.Time

	cycle sync.Mutex // held for a whole Send/Retry

	mu        sync.RWMutex
	conv      Conversation
	mode      Mode
	updatedAt time.Time
	usage     Usage
}

// Usage counts the tokens spent on a session's completion calls.
type Usage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// NewSession creates an empty session in auto mode.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        newSessionID(),
		CreatedAt: now,
		mode:      ModeAuto,
		updatedAt: now,
	}
}

func newSessionID() string {
	u := uuid.New().String()
	return "sess_" + strings.ReplaceAll(u[:8], "-", "")
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode changes the mode; it persists across turns and resets.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
	s.updatedAt = time.Now()
}

// History returns a copy of the turns.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Turns()
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Len()
}

// UpdatedAt returns the time of the last change.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Clear empties the conversation. The mode is kept. It waits for a running
// cycle to finish.
func (s *Session) Clear() {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Reset()
	s.updatedAt = time.Now()
}

// AddUsage accumulates token counts reported by the endpoint.
func (s *Session) AddUsage(input, output int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.Input += input
	s.usage.Output += output
}

// Usage returns the accumulated token counts.
func (s *Session) Usage() Usage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage
}

func (s *Session) append(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conv.Append(t)
	s.updatedAt = time.Now()
}

func (s *Session) last() (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Last()
}
