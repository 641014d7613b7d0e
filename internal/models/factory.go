package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/config"
)

// Drivers lists the supported provider drivers.
var Drivers = []string{"cerebras", "openai", "mistral", "ollama", "anthropic", "gemini"}

// CreateModel creates a model.ToolCallingChatModel from a provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	driver := strings.ToLower(cfg.Driver)
	if driver == "ollama" {
		return NewOllama(ctx, cfg)
	}

	var build func(context.Context, config.ProviderConfig, ResolvedAuth) (model.ToolCallingChatModel, error)
	switch driver {
	case "cerebras":
		build = NewCerebras
	case "openai":
		build = NewOpenAI
	case "mistral":
		build = NewMistral
	case "anthropic", "claude":
		build = NewClaude
	case "gemini":
		build = NewGemini
	default:
		return nil, fmt.Errorf("unknown driver: %s (supported: %s)", cfg.Driver, strings.Join(Drivers, ", "))
	}

	auth, err := ResolveAuth(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}
	return build(ctx, cfg, auth)
}
