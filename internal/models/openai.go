package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/config"
)

const (
	defaultCerebrasBaseURL = "https://api.cerebras.ai/v1"
	defaultCerebrasModel   = "llama-3.3-70b"
)

// NewOpenAI creates a ChatModel for any OpenAI-compatible endpoint.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: auth.Value,
		Model:  cfg.Model,
	}

	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}

	if cfg.Timeout.Duration() > 0 {
		modelConfig.Timeout = cfg.Timeout.Duration()
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	if temp, ok := cfg.OptionFloat("temperature"); ok {
		modelConfig.Temperature = &temp
	}
	if topP, ok := cfg.OptionFloat("top_p"); ok {
		modelConfig.TopP = &topP
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

// NewCerebras creates a Cerebras ChatModel via its OpenAI-compatible API.
func NewCerebras(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	if cfg.Model == "" {
		cfg.Model = defaultCerebrasModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultCerebrasBaseURL
	}
	return NewOpenAI(ctx, cfg, auth)
}
