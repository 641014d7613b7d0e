package ws

import (
	"encoding/json"
	"fmt"
)

// FrameType represents the type of WebSocket frame.
type FrameType string

const (
	FrameTypeRequest  FrameType = "req"
	FrameTypeResponse FrameType = "res"
	FrameTypeEvent    FrameType = "event"
)

// Method represents a WebSocket request method.
type Method string

const (
	MethodOpenSession    Method = "open_session"
	MethodSendMessage    Method = "send_message"
	MethodRetry          Method = "retry"
	MethodSetMode        Method = "set_mode"
	MethodClearHistory   Method = "clear_history"
	MethodGetHistory     Method = "get_history"
	MethodSubmitFeedback Method = "submit_feedback"
)

// Frame is the WebSocket protocol envelope.
type Frame struct {
	Type      FrameType       `json:"type"`
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	OK        *bool           `json:"ok,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Event     string          `json:"event,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// Request params.

type OpenSessionParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type SendMessageParams struct {
	Content string `json:"content"`
}

type SetModeParams struct {
	Mode string `json:"mode"`
}

type SubmitFeedbackParams struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Response payloads.

type SessionInfo struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
	Greeting  string `json:"greeting"`
	Turns     int    `json:"turns"`
}

type ReplyResult struct {
	Answer   string `json:"answer"`
	Thinking string `json:"thinking,omitempty"`
}

type FeedbackResult struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// MarshalFrame serializes a Frame to JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFrame deserializes JSON bytes into a Frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// DecodeParams unmarshals request params into v. Missing params leave v as is.
func DecodeParams(f Frame, v any) error {
	if len(f.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Params, v); err != nil {
		return fmt.Errorf("invalid params for %s: %w", f.Method, err)
	}
	return nil
}

// NewRequestFrame creates a request Frame.
func NewRequestFrame(id string, method Method, sessionID string, params any) (Frame, error) {
	f := Frame{
		Type:      FrameTypeRequest,
		ID:        id,
		Method:    string(method),
		SessionID: sessionID,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Frame{}, err
		}
		f.Params = data
	}
	return f, nil
}

// NewEventFrame creates a Frame for broadcasting an event.
func NewEventFrame(event string, sessionID string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:      FrameTypeEvent,
		Event:     event,
		SessionID: sessionID,
		Payload:   data,
	}, nil
}

// NewResponseFrame creates a response Frame.
func NewResponseFrame(id string, ok bool, payload any, errMsg string) (Frame, error) {
	f := Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: errMsg,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Frame{}, err
		}
		f.Payload = data
	}
	return f, nil
}
