package gateway

import (
	"testing"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
)

func TestBusSurface_RemoveBlock(t *testing.T) {
	bus := events.NewBus(16)
	surf := newBusSurface(bus, "sess_1")

	var s chat.Surface = surf
	if _, ok := s.(chat.BlockRemover); !ok {
		t.Fatal("busSurface should support block removal")
	}

	id := surf.AppendBlock(chat.BlockThinking, "partial")
	surf.RemoveBlock(id)
	bus.Close()

	history := bus.History(10)
	if len(history) != 2 {
		t.Fatalf("got %d events, want 2", len(history))
	}
	rm := history[1]
	if rm.Type != events.EventBlockRemove || rm.SessionID != "sess_1" {
		t.Fatalf("unexpected event %+v", rm)
	}
	p, ok := events.GetBlockRemovePayload(rm)
	if !ok || p.BlockID != string(id) {
		t.Fatalf("payload = %+v", p)
	}
}
