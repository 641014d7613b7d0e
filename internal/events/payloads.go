package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// USER EVENTS
// =============================================================================

type UserMessagePayload struct {
	Content string `json:"content"`
}

func (UserMessagePayload) EventType() EventType { return EventUserMessage }

// =============================================================================
// BLOCK EVENTS
// =============================================================================

// BlockAppendPayload adds a rendered block. Kind is one of user, assistant,
// thinking or notice.
type BlockAppendPayload struct {
	BlockID string `json:"block_id"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
}

func (BlockAppendPayload) EventType() EventType { return EventBlockAppend }

// BlockUpdatePayload replaces the text of an existing block.
type BlockUpdatePayload struct {
	BlockID string `json:"block_id"`
	Text    string `json:"text"`
}

func (BlockUpdatePayload) EventType() EventType { return EventBlockUpdate }

// BlockRemovePayload drops a block from the surface.
type BlockRemovePayload struct {
	BlockID string `json:"block_id"`
}

func (BlockRemovePayload) EventType() EventType { return EventBlockRemove }

// =============================================================================
// ASSISTANT EVENTS
// =============================================================================

type AssistantMessagePayload struct {
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

func (AssistantMessagePayload) EventType() EventType { return EventAssistantMessage }

type AssistantErrorPayload struct {
	Error     string `json:"error"`
	Notice    string `json:"notice"`
	Retryable bool   `json:"retryable"`
}

func (AssistantErrorPayload) EventType() EventType { return EventAssistantError }

// =============================================================================
// SESSION EVENTS
// =============================================================================

type SessionCreatedPayload struct {
	Mode     string `json:"mode"`
	Greeting string `json:"greeting,omitempty"`
}

func (SessionCreatedPayload) EventType() EventType { return EventSessionCreated }

type SessionClearedPayload struct {
	Turns int `json:"turns"`
}

func (SessionClearedPayload) EventType() EventType { return EventSessionCleared }

type SessionModePayload struct {
	Mode string `json:"mode"`
}

func (SessionModePayload) EventType() EventType { return EventSessionMode }

type SessionExpiredPayload struct {
	IdleFor time.Duration `json:"idle_for"`
}

func (SessionExpiredPayload) EventType() EventType { return EventSessionExpired }

// =============================================================================
// FEEDBACK EVENTS
// =============================================================================

type FeedbackSubmittedPayload struct {
	FeedbackID int64  `json:"feedback_id"`
	Rating     string `json:"rating"`
}

func (FeedbackSubmittedPayload) EventType() EventType { return EventFeedbackSubmitted }

// =============================================================================
// INTERNAL EVENTS
// =============================================================================

type LLMCallPayload struct {
	Phase        string        `json:"phase"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider,omitempty"`
	Verdict      string        `json:"verdict,omitempty"`
	MessageCount int           `json:"message_count,omitempty"`
	TokensInput  int           `json:"tokens_input,omitempty"`
	TokensOutput int           `json:"tokens_output,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (LLMCallPayload) EventType() EventType { return EventLLMCall }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return Event{
		ID:        generateEventID(),
		Type:      payload.EventType(),
		Timestamp: time.Now(),
		Source:    source,
		Payload:   toMap(payload),
	}
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if e.Type != result.EventType() {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetUserMessagePayload(e Event) (UserMessagePayload, bool) {
	return ExtractPayload[UserMessagePayload](e)
}

func GetBlockAppendPayload(e Event) (BlockAppendPayload, bool) {
	return ExtractPayload[BlockAppendPayload](e)
}

func GetBlockUpdatePayload(e Event) (BlockUpdatePayload, bool) {
	return ExtractPayload[BlockUpdatePayload](e)
}

func GetBlockRemovePayload(e Event) (BlockRemovePayload, bool) {
	return ExtractPayload[BlockRemovePayload](e)
}

func GetAssistantMessagePayload(e Event) (AssistantMessagePayload, bool) {
	return ExtractPayload[AssistantMessagePayload](e)
}

func GetAssistantErrorPayload(e Event) (AssistantErrorPayload, bool) {
	return ExtractPayload[AssistantErrorPayload](e)
}

func GetFeedbackSubmittedPayload(e Event) (FeedbackSubmittedPayload, bool) {
	return ExtractPayload[FeedbackSubmittedPayload](e)
}

func GetLLMCallPayload(e Event) (LLMCallPayload, bool) {
	return ExtractPayload[LLMCallPayload](e)
}
