package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/threatthriver/thinkchat/cmd/commands"
	"github.com/threatthriver/thinkchat/internal/config"
	"github.com/threatthriver/thinkchat/internal/secrets"
)

func main() {
	if err := config.LoadDotenv(config.DotenvPath(), ".env"); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	if names, err := secrets.RevealEnv(secrets.KeyPath()); err != nil {
		slog.Warn("failed to decrypt secrets", "error", err)
	} else if len(names) > 0 {
		slog.Debug("decrypted secrets", "names", names)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := commands.NewRootCommand()
	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
