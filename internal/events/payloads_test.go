package events

import "testing"

func TestTypedEvent_UserMessage(t *testing.T) {
	payload := UserMessagePayload{Content: "hello"}
	evt := NewTypedEvent(SourceShell, payload)

	if evt.Type != EventUserMessage {
		t.Fatalf("expected type %q, got %q", EventUserMessage, evt.Type)
	}
	got, ok := ExtractPayload[UserMessagePayload](evt)
	if !ok {
		t.Fatal("ExtractPayload returned false")
	}
	if got.Content != "hello" {
		t.Fatalf("expected content %q, got %q", "hello", got.Content)
	}
}

func TestTypedEvent_BlockAppend(t *testing.T) {
	evt := NewTypedEventWithSession(SourceShell, BlockAppendPayload{
		BlockID: "blk_1",
		Kind:    "thinking",
		Text:    "Step 1",
	}, "sess_1")

	if evt.SessionID != "sess_1" {
		t.Fatalf("expected session sess_1, got %q", evt.SessionID)
	}
	got, ok := GetBlockAppendPayload(evt)
	if !ok {
		t.Fatal("GetBlockAppendPayload returned false")
	}
	if got.BlockID != "blk_1" || got.Kind != "thinking" || got.Text != "Step 1" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestTypedEvent_AssistantError(t *testing.T) {
	evt := NewTypedEvent(SourceShell, AssistantErrorPayload{
		Error:     "rate limited",
		Notice:    "try again",
		Retryable: true,
	})
	got, ok := GetAssistantErrorPayload(evt)
	if !ok {
		t.Fatal("GetAssistantErrorPayload returned false")
	}
	if !got.Retryable || got.Error != "rate limited" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestTypedEvent_LLMCall(t *testing.T) {
	evt := NewTypedEvent(SourceShell, LLMCallPayload{
		Phase:        "response",
		Model:        "llama-3.3-70b",
		TokensInput:  12,
		TokensOutput: 34,
	})
	got, ok := GetLLMCallPayload(evt)
	if !ok {
		t.Fatal("GetLLMCallPayload returned false")
	}
	if got.Model != "llama-3.3-70b" || got.TokensInput != 12 || got.TokensOutput != 34 {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestExtractPayload_WrongType(t *testing.T) {
	evt := NewTypedEvent(SourceShell, UserMessagePayload{Content: "hi"})
	if _, ok := GetFeedbackSubmittedPayload(evt); ok {
		t.Fatal("expected false for mismatched event type")
	}
}
