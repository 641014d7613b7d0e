package chat

import (
	"time"

	"github.com/google/uuid"
)

// BlockKind tells the surface how to present a block.
type BlockKind string

const (
	BlockUser      BlockKind = "user"
	BlockAssistant BlockKind = "assistant"
	BlockThinking  BlockKind = "thinking"
	BlockNotice    BlockKind = "notice"
)

// BlockID identifies a rendered block on a surface.
type BlockID string

// Surface is what the shell needs from a rendering layer: add a block and
// redraw an existing one in place.
type Surface interface {
	AppendBlock(kind BlockKind, text string) BlockID
	UpdateBlock(id BlockID, text string)
}

// BlockRemover is implemented by surfaces that can drop a rendered block.
type BlockRemover interface {
	RemoveBlock(id BlockID)
}

// Discard is a Surface that renders nothing.
type Discard struct{}

func (Discard) AppendBlock(BlockKind, string) BlockID { return "" }
func (Discard) UpdateBlock(BlockID, string)           {}

// NewBlockID returns a unique block id.
func NewBlockID() BlockID {
	return BlockID("blk_" + uuid.NewString())
}

// Greeting returns the time-of-day salutation shown above the chat.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good Morning!"
	case h < 18:
		return "Good Afternoon!"
	default:
		return "Good Evening!"
	}
}
