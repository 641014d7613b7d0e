package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/feedback"
)

// Tool names.
const (
	ToolAsk            = "ask"
	ToolClearHistory   = "clear_history"
	ToolSubmitFeedback = "submit_feedback"
)

// Version is reported to MCP clients.
var Version = "0.1.0"

func modeNames() []string {
	out := make([]string, len(chat.Modes))
	for i, m := range chat.Modes {
		out[i] = string(m)
	}
	return out
}

func ratingNames() []string {
	out := make([]string, len(feedback.Ratings))
	for i, r := range feedback.Ratings {
		out[i] = string(r)
	}
	return out
}

// toolSpecs lists the exposed tools. submit_feedback is only present when a
// feedback store is configured.
func toolSpecs(withFeedback bool) []ToolSpec {
	specs := []ToolSpec{
		{
			Name:        ToolAsk,
			Description: "Ask the assistant a question. The conversation carries over between calls until clear_history.",
			Parameters: map[string]ParamSpec{
				"prompt": {Type: "string", Description: "The question", Required: true},
				"mode": {
					Type:        "string",
					Description: "Classification mode; complex asks for step-by-step reasoning. Omitted keeps the current mode",
					Enum:        modeNames(),
				},
				"include_thinking": {
					Type:        "boolean",
					Description: "Append the reasoning trace of complex answers",
					Default:     false,
				},
			},
		},
		{
			Name:        ToolClearHistory,
			Description: "Forget the conversation so far.",
			Parameters:  map[string]ParamSpec{},
		},
	}
	if withFeedback {
		specs = append(specs, ToolSpec{
			Name:        ToolSubmitFeedback,
			Description: "Rate the last answer.",
			Parameters: map[string]ParamSpec{
				"rating":  {Type: "string", Description: "Rating", Required: true, Enum: ratingNames()},
				"comment": {Type: "string", Description: "Optional comment"},
			},
		})
	}
	return specs
}

type askArgs struct {
	Prompt          string `json:"prompt"`
	Mode            string `json:"mode"`
	IncludeThinking bool   `json:"include_thinking"`
}

type feedbackArgs struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment"`
}

// NewServer creates an MCP server backed by one conversation. fb may be nil.
func NewServer(shell *chat.Shell, fb *feedback.Store) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "thinkchat",
		Version: Version,
	}, nil)

	sess := chat.NewSession()

	handlers := map[string]func(context.Context, json.RawMessage) (string, error){
		ToolAsk: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args askArgs
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			if strings.TrimSpace(args.Prompt) == "" {
				return "", errors.New("prompt is required")
			}
			if args.Mode != "" {
				mode, err := chat.ParseMode(args.Mode)
				if err != nil {
					return "", err
				}
				sess.SetMode(mode)
			}

			turn, err := shell.Send(ctx, sess, args.Prompt, chat.Discard{})
			if err != nil {
				return "", err
			}
			if args.IncludeThinking && turn.Thinking != "" {
				return "Thinking Process:\n" + turn.Thinking + "\n\n" + chat.FinalAnswerMarker + "\n" + turn.Content, nil
			}
			return turn.Content, nil
		},
		ToolClearHistory: func(context.Context, json.RawMessage) (string, error) {
			sess.Clear()
			return "Chat history cleared.", nil
		},
		ToolSubmitFeedback: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var args feedbackArgs
			if err := decodeArgs(raw, &args); err != nil {
				return "", err
			}
			r, err := feedback.ParseRating(args.Rating)
			if err != nil {
				return "", err
			}
			if _, err := fb.Submit(ctx, sess.ID, r, args.Comment); err != nil {
				return "", err
			}
			return feedback.Acknowledgement(r), nil
		},
	}

	for _, spec := range toolSpecs(fb != nil) {
		run := handlers[spec.Name]
		toolName := spec.Name

		server.AddTool(toMCPTool(spec), func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			result, err := run(ctx, req.Params.Arguments)
			if err != nil {
				slog.Debug("mcp tool error", "tool", toolName, "error", err)
				text := err.Error()
				var endpointErr *chat.EndpointError
				if errors.As(err, &endpointErr) {
					text = chat.FailureNotice + " (" + endpointErr.Err.Error() + ")"
				}
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
				}, nil
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: result}},
			}, nil
		})

		slog.Debug("mcp tool registered", "tool", toolName)
	}

	return server
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
