package sessions

import (
	"sort"
	"sync"
	"time"

	"github.com/threatthriver/thinkchat/internal/chat"
)

// MemoryStore keeps sessions for the lifetime of the process. Conversations
// are never written to disk.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*chat.Session)}
}

// Create registers a new session in auto mode.
func (ms *MemoryStore) Create() (*chat.Session, error) {
	s := chat.NewSession()

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[s.ID] = s
	return s, nil
}

// Get returns a live session.
func (ms *MemoryStore) Get(id string) (*chat.Session, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s, ok := ms.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// List returns all sessions sorted by last activity, newest first.
func (ms *MemoryStore) List() ([]Summary, error) {
	ms.mu.RLock()
	list := make([]Summary, 0, len(ms.sessions))
	for _, s := range ms.sessions {
		list = append(list, Summarize(s))
	}
	ms.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Sweep removes sessions idle for longer than ttl and returns their ids.
func (ms *MemoryStore) Sweep(now time.Time, ttl time.Duration) []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var expired []string
	for id, s := range ms.sessions {
		if now.Sub(s.UpdatedAt()) > ttl {
			delete(ms.sessions, id)
			expired = append(expired, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Len returns the number of live sessions.
func (ms *MemoryStore) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.sessions)
}
