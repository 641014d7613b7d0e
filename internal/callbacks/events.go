// Package callbacks provides Eino callback handlers that bridge to the event bus.
package callbacks

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	ub "github.com/cloudwego/eino/utils/callbacks"

	"github.com/threatthriver/thinkchat/internal/events"
)

type startKey struct{}

// NewEventBusHandler creates a callback handler that publishes
// internal.llm.call events for every chat model call.
func NewEventBusHandler(bus *events.Bus, provider string) callbacks.Handler {
	publishTyped := func(ctx context.Context, payload events.LLMCallPayload) {
		scope, ok := events.TurnFromContext(ctx)
		payload.Verdict = scope.Verdict
		if ok && scope.SessionID != "" {
			bus.Publish(events.NewTypedEventWithSession(events.SourceShell, payload, scope.SessionID))
		} else {
			bus.Publish(events.NewTypedEvent(events.SourceShell, payload))
		}
	}

	elapsed := func(ctx context.Context) time.Duration {
		if start, ok := ctx.Value(startKey{}).(time.Time); ok {
			return time.Since(start)
		}
		return 0
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *callbacks.RunInfo, input *model.CallbackInput) context.Context {
			publishTyped(ctx, events.LLMCallPayload{
				Phase:        "request",
				Model:        modelName(info, input.Config),
				Provider:     provider,
				MessageCount: len(input.Messages),
			})
			return context.WithValue(ctx, startKey{}, time.Now())
		},

		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			payload := events.LLMCallPayload{
				Phase:    "response",
				Model:    modelName(info, output.Config),
				Provider: provider,
				Duration: elapsed(ctx),
			}
			addUsage(&payload, output)
			publishTyped(ctx, payload)
			return ctx
		},

		OnEndWithStreamOutput: func(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[*model.CallbackOutput]) context.Context {
			go func() {
				defer output.Close()
				payload := events.LLMCallPayload{
					Phase:    "response",
					Model:    modelName(info, nil),
					Provider: provider,
				}
				for {
					chunk, err := output.Recv()
					if errors.Is(err, io.EOF) {
						break
					}
					if err != nil {
						payload.Phase = "error"
						payload.Error = err.Error()
						break
					}
					if chunk != nil && chunk.Config != nil && chunk.Config.Model != "" {
						payload.Model = chunk.Config.Model
					}
					addUsage(&payload, chunk)
				}
				payload.Duration = elapsed(ctx)
				publishTyped(ctx, payload)
			}()
			return ctx
		},

		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			publishTyped(ctx, events.LLMCallPayload{
				Phase:    "error",
				Model:    modelName(info, nil),
				Provider: provider,
				Duration: elapsed(ctx),
				Error:    truncatePayload(err.Error(), 1000),
			})
			return ctx
		},
	}

	return ub.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}

func modelName(info *callbacks.RunInfo, cfg *model.Config) string {
	if cfg != nil && cfg.Model != "" {
		return cfg.Model
	}
	if info != nil {
		return info.Name
	}
	return ""
}

func addUsage(p *events.LLMCallPayload, out *model.CallbackOutput) {
	if out == nil || out.TokenUsage == nil {
		return
	}
	if out.TokenUsage.PromptTokens > 0 {
		p.TokensInput = out.TokenUsage.PromptTokens
	}
	if out.TokenUsage.CompletionTokens > 0 {
		p.TokensOutput = out.TokenUsage.CompletionTokens
	}
}

func truncatePayload(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "... (truncated)"
}
