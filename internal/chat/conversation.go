package chat

import (
	"time"

	"github.com/cloudwego/eino/schema"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation.
type Turn struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Thinking string    `json:"thinking,omitempty"`
	Ts       time.Time `json:"ts"`
}

// ToSchemaMessage converts a turn to an Eino message. The thinking trace is
// dropped: only the final content is replayed to the model.
func (t Turn) ToSchemaMessage() *schema.Message {
	return &schema.Message{
		Role:    schema.RoleType(t.Role),
		Content: t.Content,
	}
}

// Conversation is the append-only, chronologically ordered list of turns of
// one session. It is not safe for concurrent use; Session guards it.
type Conversation struct {
	turns []Turn
}

// Append adds a turn at the end.
func (c *Conversation) Append(t Turn) {
	if t.Ts.IsZero() {
		t.Ts = time.Now()
	}
	c.turns = append(c.turns, t)
}

// Turns returns a copy of the turns in display order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Last returns the newest turn.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1], true
}

// Reset replaces the conversation with an empty one.
func (c *Conversation) Reset() {
	c.turns = nil
}
