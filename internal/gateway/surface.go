package gateway

import (
	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
)

// busSurface renders blocks as block events on the session's event stream.
type busSurface struct {
	bus       *events.Bus
	sessionID string
}

func newBusSurface(bus *events.Bus, sessionID string) *busSurface {
	return &busSurface{bus: bus, sessionID: sessionID}
}

func (s *busSurface) AppendBlock(kind chat.BlockKind, text string) chat.BlockID {
	id := chat.NewBlockID()
	s.bus.Publish(events.NewTypedEventWithSession(events.SourceShell, events.BlockAppendPayload{
		BlockID: string(id),
		Kind:    string(kind),
		Text:    text,
	}, s.sessionID))
	return id
}

func (s *busSurface) UpdateBlock(id chat.BlockID, text string) {
	s.bus.Publish(events.NewTypedEventWithSession(events.SourceShell, events.BlockUpdatePayload{
		BlockID: string(id),
		Text:    text,
	}, s.sessionID))
}

func (s *busSurface) RemoveBlock(id chat.BlockID) {
	s.bus.Publish(events.NewTypedEventWithSession(events.SourceShell, events.BlockRemovePayload{
		BlockID: string(id),
	}, s.sessionID))
}
