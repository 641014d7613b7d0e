package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/internal/config"
	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/feedback"
	"github.com/threatthriver/thinkchat/internal/gateway"
	"github.com/threatthriver/thinkchat/internal/heartbeat"
	"github.com/threatthriver/thinkchat/internal/sessions"
	"github.com/threatthriver/thinkchat/internal/storage"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"gateway"},
		Usage:   "Start the chat gateway and web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	shell, info, err := newShell(ctx, cfg, bus)
	if err != nil {
		return err
	}

	store := sessions.NewMemoryStore()
	sweeper, err := sessions.NewSweeper(store, bus, cfg.Sessions.IdleTTL.Duration(), cfg.Sessions.SweepEvery)
	if err != nil {
		return fmt.Errorf("session sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	usage := storage.NewUsageTracker(bus, store)
	defer usage.Close()
	if cfg.Events.Journal {
		journal := storage.NewEventLogger(cfg.Events.LogDir, bus)
		defer journal.Close()
		slog.Info("event journal enabled", "dir", cfg.Events.LogDir)
	}

	fb, err := feedback.Open(cfg.Feedback.DBPath)
	if err != nil {
		slog.Warn("feedback disabled", "path", cfg.Feedback.DBPath, "error", err)
		fb = nil
	} else {
		defer fb.Close()
	}

	handler := gateway.NewChatHandler(store, shell, bus, fb)
	server := gateway.NewServer(bus, store, handler, gateway.Info{
		Provider: info.Name,
		Model:    info.Model,
	}, cfg.Gateway.Host, cfg.Gateway.Port)

	hb := heartbeat.NewWriter(config.HeartbeatPath(), heartbeat.Beat{
		Addr:     server.Addr(),
		Provider: info.Name,
		Model:    info.Model,
	}, store.Len)
	hbCtx, stopBeat := context.WithCancel(context.Background())
	hbDone := make(chan struct{})
	go func() {
		defer close(hbDone)
		if err := hb.Run(hbCtx); err != nil {
			slog.Warn("heartbeat disabled", "error", err)
		}
	}()
	defer func() {
		stopBeat()
		<-hbDone
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	slog.Info("gateway listening", "addr", "http://"+server.Addr(), "provider", info.Name, "model", info.Model)

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
