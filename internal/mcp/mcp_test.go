package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/feedback"
)

type echoModel struct {
	reply string
	err   error
	calls int
	last  []*schema.Message
}

func (m *echoModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *echoModel) Stream(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.calls++
	m.last = msgs
	if m.err != nil {
		return nil, m.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

func TestToMCPTool(t *testing.T) {
	spec := ToolSpec{
		Name:        "test_tool",
		Description: "A test tool",
		Parameters: map[string]ParamSpec{
			"name":  {Type: "string", Description: "The name", Required: true},
			"count": {Type: "integer", Description: "A count"},
			"mode":  {Type: "string", Description: "The mode", Required: true, Enum: []string{"fast", "slow"}},
		},
	}

	mcpTool := toMCPTool(spec)
	if mcpTool.Name != "test_tool" || mcpTool.Description != "A test tool" {
		t.Fatalf("unexpected tool %+v", mcpTool)
	}

	schemaBytes, err := json.Marshal(mcpTool.InputSchema)
	if err != nil {
		t.Fatalf("marshal InputSchema: %v", err)
	}
	var s map[string]any
	if err := json.Unmarshal(schemaBytes, &s); err != nil {
		t.Fatalf("unmarshal InputSchema: %v", err)
	}

	if s["type"] != "object" {
		t.Errorf("schema type = %v, want object", s["type"])
	}
	props, _ := s["properties"].(map[string]any)
	if len(props) != 3 {
		t.Errorf("schema properties len = %d, want 3", len(props))
	}
	req, _ := s["required"].([]any)
	if len(req) != 2 || req[0] != "mode" || req[1] != "name" {
		t.Errorf("schema required = %v, want [mode name]", req)
	}
}

func TestToMCPTool_NoRequired(t *testing.T) {
	mcpTool := toMCPTool(ToolSpec{Name: "simple", Parameters: map[string]ParamSpec{}})
	schemaBytes, _ := json.Marshal(mcpTool.InputSchema)
	var s map[string]any
	json.Unmarshal(schemaBytes, &s)
	if _, ok := s["required"]; ok {
		t.Error("schema should not have required field when no params are required")
	}
}

func TestToolSpecs(t *testing.T) {
	if n := len(toolSpecs(false)); n != 2 {
		t.Fatalf("without feedback: %d tools, want 2", n)
	}
	if n := len(toolSpecs(true)); n != 3 {
		t.Fatalf("with feedback: %d tools, want 3", n)
	}
}

func connect(t *testing.T, server *mcpsdk.Server) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcpsdk.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverT, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func callText(t *testing.T, cs *mcpsdk.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool %s: empty content", name)
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("CallTool %s: content is %T", name, res.Content[0])
	}
	return text.Text, res.IsError
}

func TestServerAsk(t *testing.T) {
	m := &echoModel{reply: "Step one. " + chat.FinalAnswerMarker + " 42"}
	cs := connect(t, NewServer(chat.NewShell(chat.ShellConfig{Model: m}), nil))

	tools, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(tools.Tools) != 2 {
		t.Fatalf("expected 2 tools without feedback store, got %d", len(tools.Tools))
	}

	text, isErr := callText(t, cs, ToolAsk, map[string]any{"prompt": "Explain why the sky is blue"})
	if isErr || text != "42" {
		t.Fatalf("ask = %q (error=%v)", text, isErr)
	}

	text, _ = callText(t, cs, ToolAsk, map[string]any{"prompt": "why again", "include_thinking": true})
	if !strings.HasPrefix(text, "Thinking Process:\nStep one.") || !strings.HasSuffix(text, "42") {
		t.Fatalf("ask with thinking = %q", text)
	}
	// system prompt, first exchange, new prompt
	if len(m.last) != 4 {
		t.Fatalf("expected conversation to carry over, model saw %d messages", len(m.last))
	}

	callText(t, cs, ToolClearHistory, nil)
	callText(t, cs, ToolAsk, map[string]any{"prompt": "hi", "mode": "simple"})
	if len(m.last) != 2 {
		t.Fatalf("expected a fresh conversation after clear, model saw %d messages", len(m.last))
	}
}

func TestServerAskKeepsMode(t *testing.T) {
	m := &echoModel{reply: "ok"}
	cs := connect(t, NewServer(chat.NewShell(chat.ShellConfig{Model: m}), nil))

	callText(t, cs, ToolAsk, map[string]any{"prompt": "hi", "mode": "complex"})
	if got := m.last[0].Content; got != chat.DefaultComplexPrompt {
		t.Fatalf("first call system prompt = %q", got)
	}

	callText(t, cs, ToolAsk, map[string]any{"prompt": "hello"})
	if got := m.last[0].Content; got != chat.DefaultComplexPrompt {
		t.Fatalf("mode changed without a mode argument: system prompt = %q", got)
	}

	callText(t, cs, ToolClearHistory, nil)
	callText(t, cs, ToolAsk, map[string]any{"prompt": "hello"})
	if got := m.last[0].Content; got != chat.DefaultComplexPrompt {
		t.Fatalf("mode changed by clear_history: system prompt = %q", got)
	}

	callText(t, cs, ToolAsk, map[string]any{"prompt": "hello", "mode": "auto"})
	if got := m.last[0].Content; got != chat.DefaultSimplePrompt {
		t.Fatalf("explicit auto not applied: system prompt = %q", got)
	}
}

func TestServerAskErrors(t *testing.T) {
	m := &echoModel{err: errors.New("connection refused")}
	cs := connect(t, NewServer(chat.NewShell(chat.ShellConfig{Model: m}), nil))

	text, isErr := callText(t, cs, ToolAsk, map[string]any{"prompt": "hello there"})
	if !isErr || !strings.HasPrefix(text, chat.FailureNotice) {
		t.Fatalf("expected failure notice, got %q (error=%v)", text, isErr)
	}

	_, isErr = callText(t, cs, ToolAsk, map[string]any{"prompt": "x", "mode": "loud"})
	if !isErr {
		t.Fatal("expected error for unknown mode")
	}
}

func TestServerFeedback(t *testing.T) {
	fb, err := feedback.Open(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("open feedback: %v", err)
	}
	defer fb.Close()

	cs := connect(t, NewServer(chat.NewShell(chat.ShellConfig{Model: &echoModel{reply: "ok"}}), fb))

	text, isErr := callText(t, cs, ToolSubmitFeedback, map[string]any{"rating": "bad", "comment": "too short"})
	if isErr || text != "Thank you for your feedback! You rated it as: Bad" {
		t.Fatalf("submit_feedback = %q (error=%v)", text, isErr)
	}

	counts, err := fb.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[feedback.RatingBad] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}
