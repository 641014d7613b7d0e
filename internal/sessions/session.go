// Package sessions keeps live chat sessions in memory.
package sessions

import (
	"errors"
	"time"

	"github.com/threatthriver/thinkchat/internal/chat"
)

// ErrNotFound is returned when a session id is unknown or has expired.
var ErrNotFound = errors.New("session not found")

// Summary describes a session for listings.
type Summary struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Mode         chat.Mode  `json:"mode"`
	MessageCount int        `json:"message_count"`
	TokenUsage   chat.Usage `json:"token_usage"`
}

// Summarize builds the listing entry of a session.
func Summarize(s *chat.Session) Summary {
	return Summary{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt(),
		Mode:         s.Mode(),
		MessageCount: s.Len(),
		TokenUsage:   s.Usage(),
	}
}

// Store defines the lookup interface for sessions.
type Store interface {
	Create() (*chat.Session, error)
	Get(id string) (*chat.Session, error)
	List() ([]Summary, error)
}
