package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/threatthriver/thinkchat/internal/feedback"
)

// NewFeedbackCommand returns the feedback subcommand.
func NewFeedbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "feedback",
		Usage: "Review recorded answer ratings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent ratings and totals",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 20,
					},
				},
				Action: runFeedbackList,
			},
		},
		DefaultCommand: "list",
	}
}

func runFeedbackList(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := feedback.Open(cfg.Feedback.DBPath)
	if err != nil {
		return fmt.Errorf("open feedback: %w", err)
	}
	defer store.Close()

	counts, err := store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count feedback: %w", err)
	}
	entries, err := store.List(ctx, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("list feedback: %w", err)
	}

	for _, r := range feedback.Ratings {
		fmt.Printf("%-8s %d\n", r, counts[r])
	}
	if len(entries) == 0 {
		fmt.Println("\nNo feedback yet.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tRATING\tSESSION\tCOMMENT")
	for _, e := range entries {
		session, comment := e.SessionID, e.Comment
		if session == "" {
			session = "-"
		}
		if comment == "" {
			comment = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Rating, session, comment)
	}
	return w.Flush()
}
