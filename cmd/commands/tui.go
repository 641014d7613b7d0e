package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/clients/tui"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Chat with a running gateway in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL (default from config)",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session ID to resume (empty = new session)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			url := cmd.String("gateway")
			if url == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				url = gatewayURL(cfg)
			}
			return tui.Run(ctx, url, cmd.String("session"))
		},
	}
}
