package commands

import (
	"context"
	"log/slog"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/internal/feedback"
	thinkmcp "github.com/threatthriver/thinkchat/internal/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose the assistant as an MCP server (stdio)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-feedback",
				Usage: "Do not expose the submit_feedback tool",
			},
		},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// stdout is the MCP transport; logs go to stderr only.
	level := slog.LevelWarn
	if cmd.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shell, info, err := newShell(ctx, cfg, nil)
	if err != nil {
		return err
	}

	var fb *feedback.Store
	if !cmd.Bool("no-feedback") {
		fb, err = feedback.Open(cfg.Feedback.DBPath)
		if err != nil {
			slog.Warn("feedback disabled", "error", err)
			fb = nil
		} else {
			defer fb.Close()
		}
	}

	slog.Debug("starting MCP server", "provider", info.Name, "model", info.Model)

	server := thinkmcp.NewServer(shell, fb)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
