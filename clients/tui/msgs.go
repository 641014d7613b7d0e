package tui

// BlockAppendMsg adds a block to the transcript.
type BlockAppendMsg struct {
	ID   string
	Kind string
	Text string
}

// BlockUpdateMsg redraws a block in place.
type BlockUpdateMsg struct {
	ID   string
	Text string
}

// BlockRemoveMsg drops a block from the transcript.
type BlockRemoveMsg struct {
	ID string
}

// AssistantDoneMsg marks the end of a successful cycle.
type AssistantDoneMsg struct {
	Content string
}

// AssistantErrorMsg marks a failed cycle that can be retried.
type AssistantErrorMsg struct {
	Notice string
	Error  string
}

// SessionModeMsg reports a mode change.
type SessionModeMsg struct {
	Mode string
}

// SessionClearedMsg reports that the conversation was emptied.
type SessionClearedMsg struct{}

// ResponseMsg carries a gateway response to one of our requests.
type ResponseMsg struct {
	ID      string
	OK      bool
	Error   string
	Payload []byte
}

// LLMTelemetryMsg carries token usage from an internal.llm.call event.
type LLMTelemetryMsg struct {
	Model     string
	TokensIn  int
	TokensOut int
}

// DisconnectedMsg signals a lost WS connection.
type DisconnectedMsg struct {
	Err error
}

// sendErrorMsg carries an error from an async WS send.
type sendErrorMsg struct {
	err error
}
