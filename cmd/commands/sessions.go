package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/sessions"
)

// NewSessionsCommand returns the sessions subcommand. Sessions live in the
// gateway's memory, so both subcommands query a running gateway.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect live gateway sessions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List live sessions",
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show the conversation of a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
		},
		DefaultCommand: "list",
	}
}

// getJSON fetches a gateway API path into v.
func getJSON(ctx context.Context, cmd *cli.Command, path string, v any) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gatewayHTTP(cfg)+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query gateway (is `thinkchat serve` running?): %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("gateway: %s: %s", resp.Status, body.Error)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func runSessionsList(ctx context.Context, cmd *cli.Command) error {
	var list []sessions.Summary
	if err := getJSON(ctx, cmd, "/api/sessions", &list); err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tMESSAGES\tTOKENS\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d/%d\t%s\n",
			s.ID,
			s.Mode,
			s.MessageCount,
			s.TokenUsage.Input,
			s.TokenUsage.Output,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSessionsShow(ctx context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: thinkchat sessions show <session_id>")
	}

	var turns []chat.Turn
	if err := getJSON(ctx, cmd, "/api/sessions/"+sessionID, &turns); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	if len(turns) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}

	for _, t := range turns {
		fmt.Printf("[%s] %s: %s\n", t.Ts.Format("15:04:05"), t.Role, t.Content)
	}
	return nil
}
