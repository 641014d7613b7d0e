package tui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/threatthriver/thinkchat/internal/events"
	ws "github.com/threatthriver/thinkchat/internal/gateway/ws"
)

// Project converts a gateway WS Frame into a typed tea.Msg.
// Returns nil for frames that don't map to a TUI message.
func Project(frame ws.Frame) tea.Msg {
	if frame.Type == ws.FrameTypeResponse {
		return ResponseMsg{
			ID:      frame.ID,
			OK:      frame.OK != nil && *frame.OK,
			Error:   frame.Error,
			Payload: frame.Payload,
		}
	}
	if frame.Event == "" {
		return nil
	}

	switch events.EventType(frame.Event) {
	case events.EventBlockAppend:
		p, ok := decode[events.BlockAppendPayload](frame)
		if !ok {
			return nil
		}
		return BlockAppendMsg{ID: p.BlockID, Kind: p.Kind, Text: p.Text}
	case events.EventBlockUpdate:
		p, ok := decode[events.BlockUpdatePayload](frame)
		if !ok {
			return nil
		}
		return BlockUpdateMsg{ID: p.BlockID, Text: p.Text}
	case events.EventBlockRemove:
		p, ok := decode[events.BlockRemovePayload](frame)
		if !ok {
			return nil
		}
		return BlockRemoveMsg{ID: p.BlockID}
	case events.EventAssistantMessage:
		p, ok := decode[events.AssistantMessagePayload](frame)
		if !ok {
			return nil
		}
		return AssistantDoneMsg{Content: p.Content}
	case events.EventAssistantError:
		p, ok := decode[events.AssistantErrorPayload](frame)
		if !ok {
			return nil
		}
		return AssistantErrorMsg{Notice: p.Notice, Error: p.Error}
	case events.EventSessionMode:
		p, ok := decode[events.SessionModePayload](frame)
		if !ok {
			return nil
		}
		return SessionModeMsg{Mode: p.Mode}
	case events.EventSessionCleared:
		return SessionClearedMsg{}
	case events.EventLLMCall:
		p, ok := decode[events.LLMCallPayload](frame)
		if !ok || p.Phase != "response" {
			return nil
		}
		return LLMTelemetryMsg{Model: p.Model, TokensIn: p.TokensInput, TokensOut: p.TokensOutput}
	default:
		return nil
	}
}

func decode[T any](frame ws.Frame) (T, bool) {
	var v T
	if err := json.Unmarshal(frame.Payload, &v); err != nil {
		return v, false
	}
	return v, true
}
