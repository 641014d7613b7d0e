package models

import (
	"context"
	"net/http"
	"time"

	einoclaude "github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/config"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-6"
	defaultAnthropicMaxTokens = 4096
)

// NewClaude creates an Anthropic ChatModel.
func NewClaude(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	timeout := cfg.Timeout.Duration()
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	modelConfig := &einoclaude.Config{
		APIKey:     auth.Value,
		Model:      modelName,
		MaxTokens:  maxTokens,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		modelConfig.BaseURL = &baseURL
	}
	if temp, ok := cfg.OptionFloat("temperature"); ok {
		modelConfig.Temperature = &temp
	}
	// Anthropic rejects temperature and top_p together on recent models.
	if topP, ok := cfg.OptionFloat("top_p"); ok && modelConfig.Temperature == nil {
		modelConfig.TopP = &topP
	}

	return einoclaude.NewChatModel(ctx, modelConfig)
}
