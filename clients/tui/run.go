package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	wsclient "github.com/threatthriver/thinkchat/clients/ws"
)

// Run connects to the gateway at url, opens (or resumes) a session and runs
// the TUI until the user quits.
func Run(ctx context.Context, url, sessionID string) error {
	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to gateway (is `thinkchat serve` running?): %w", err)
	}
	defer client.Close()

	info, err := client.OpenSession(sessionID)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	p := tea.NewProgram(NewApp(client, info), tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		for {
			frame, err := client.ReadFrame()
			if err != nil {
				p.Send(DisconnectedMsg{Err: err})
				return
			}
			if msg := Project(frame); msg != nil {
				p.Send(msg)
			}
		}
	}()

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
