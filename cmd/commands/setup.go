package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/urfave/cli/v3"

	thinkcallbacks "github.com/threatthriver/thinkchat/internal/callbacks"
	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/config"
	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/models"
)

// loadConfig reads the --config file, falling back to defaults when it does
// not exist.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	path := cmd.String("config")
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// newShell initializes the default model and wraps it in a Shell. A missing
// API key fails here, before any interaction. bus may be nil.
func newShell(ctx context.Context, cfg *config.Config, bus *events.Bus) (*chat.Shell, models.Info, error) {
	registry := models.NewRegistry(cfg.Models)
	name := registry.DefaultName()
	info, _ := registry.Info(name)

	chatModel, err := registry.Default(ctx)
	if err != nil {
		return nil, info, fmt.Errorf("init model %q: %w", name, err)
	}
	slog.Debug("model ready", "provider", name, "driver", info.Driver, "model", info.Model)

	var handlers []callbacks.Handler
	if bus != nil {
		handlers = append(handlers, thinkcallbacks.NewEventBusHandler(bus, info.Driver))
	}

	shell := chat.NewShell(chat.ShellConfig{
		Model: chatModel,
		Prompts: chat.Prompts{
			Simple:  cfg.Assistant.SimplePrompt,
			Complex: cfg.Assistant.ComplexPrompt,
		},
		HistoryLimit: cfg.Assistant.HistoryLimit,
		TokenBudget:  registry.PromptBudget(name),
		MapError:     models.HandleError,
		Callbacks:    handlers,
	})
	return shell, info, nil
}

// gatewayURL builds the WebSocket URL of the configured gateway.
func gatewayURL(cfg *config.Config) string {
	return fmt.Sprintf("ws://%s:%d/api/ws", cfg.Gateway.Host, cfg.Gateway.Port)
}

// gatewayHTTP builds the HTTP base URL of the configured gateway.
func gatewayHTTP(cfg *config.Config) string {
	return fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
}
