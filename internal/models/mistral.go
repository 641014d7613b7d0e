package models

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/config"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "mistral-small-latest"
)

// NewMistral creates a new Mistral AI ChatModel via the OpenAI-compatible API.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	if cfg.Model == "" {
		cfg.Model = defaultMistralModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultMistralBaseURL
	}
	if cfg.Timeout.Duration() == 0 {
		cfg.Timeout = config.Duration(5 * time.Minute)
	}
	return NewOpenAI(ctx, cfg, auth)
}
