package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/internal/config"
	"github.com/threatthriver/thinkchat/internal/heartbeat"
)

// staleAfter allows a few missed beats before a gateway counts as gone.
const staleAfter = 4 * heartbeat.DefaultInterval

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show whether a gateway is running",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the heartbeat as JSON"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			state, beat, err := heartbeat.Read(config.HeartbeatPath(), staleAfter)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					State heartbeat.State `json:"state"`
					heartbeat.Beat
				}{state, beat})
			}
			printStatus(os.Stdout, state, beat, time.Now())
			return nil
		},
	}
}

func printStatus(w io.Writer, state heartbeat.State, b heartbeat.Beat, now time.Time) {
	switch state {
	case heartbeat.StateRunning:
		fmt.Fprintf(w, "Gateway: running (PID %d, up %s)\n", b.PID, b.Uptime())
		fmt.Fprintf(w, "  http://%s  %s/%s  %d session(s)\n", b.Addr, b.Provider, b.Model, b.Sessions)
	case heartbeat.StateStale:
		fmt.Fprintf(w, "Gateway: stale (PID %d, last heartbeat %s ago)\n", b.PID, now.Sub(b.At).Truncate(time.Second))
	default:
		fmt.Fprintln(w, "Gateway: not running")
	}
}
