package sessions

import (
	"fmt"
	"log/slog"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/threatthriver/thinkchat/internal/events"
)

// Sweeper periodically expires idle sessions.
type Sweeper struct {
	store *MemoryStore
	bus   *events.Bus
	ttl   time.Duration
	cron  *cron.Cron
}

// NewSweeper schedules store sweeps on a cron spec such as "@every 10m".
func NewSweeper(store *MemoryStore, bus *events.Bus, ttl time.Duration, spec string) (*Sweeper, error) {
	s := &Sweeper{
		store: store,
		bus:   bus,
		ttl:   ttl,
		cron:  cron.New(),
	}
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("schedule session sweep %q: %w", spec, err)
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run performs a single sweep.
func (s *Sweeper) Run() {
	expired := s.store.Sweep(time.Now(), s.ttl)
	for _, id := range expired {
		if s.bus != nil {
			s.bus.Publish(events.NewTypedEventWithSession(events.SourceSessions,
				events.SessionExpiredPayload{IdleFor: s.ttl}, id))
		}
	}
	if len(expired) > 0 {
		slog.Info("sessions expired", "count", len(expired), "remaining", s.store.Len())
	}
}
