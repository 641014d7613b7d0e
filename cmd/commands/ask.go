package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	wsclient "github.com/threatthriver/thinkchat/clients/ws"
	"github.com/threatthriver/thinkchat/internal/chat"
	"github.com/threatthriver/thinkchat/internal/events"
	"github.com/threatthriver/thinkchat/internal/gateway/ws"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask one question and print the answer",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Classification mode: auto, simple or complex (a resumed session keeps its mode unless set)",
				Value: string(chat.ModeAuto),
			},
			&cli.StringFlag{
				Name:  "gateway",
				Usage: "Gateway WebSocket URL (default from config)",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Session ID to resume (empty = new session)",
			},
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Call the model directly instead of going through a running gateway",
			},
			&cli.BoolFlag{
				Name:  "thinking",
				Usage: "Print the reasoning trace of complex answers to stderr",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Response timeout in seconds",
				Value: 120,
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: thinkchat ask <message>")
	}
	mode, err := chat.ParseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cmd.Int("timeout"))*time.Second)
	defer cancel()

	out := newStreamPrinter(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
	if cmd.Bool("thinking") {
		out.thinking = os.Stderr
	}

	if cmd.Bool("local") {
		return askLocal(ctx, cmd, message, mode, out)
	}
	return askGateway(ctx, cmd, message, mode, out)
}

func askLocal(ctx context.Context, cmd *cli.Command, message string, mode chat.Mode, out *streamPrinter) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	shell, _, err := newShell(ctx, cfg, nil)
	if err != nil {
		return err
	}

	sess := chat.NewSession()
	sess.SetMode(mode)
	turn, err := shell.Send(ctx, sess, message, out)
	if err != nil {
		return err
	}
	out.finish(turn.Content)
	return nil
}

func askGateway(ctx context.Context, cmd *cli.Command, message string, mode chat.Mode, out *streamPrinter) error {
	url := cmd.String("gateway")
	if url == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url = gatewayURL(cfg)
	}

	client, err := wsclient.Dial(ctx, url)
	if err != nil {
		return fmt.Errorf("connect to gateway (run `thinkchat serve` or use --local): %w", err)
	}
	defer client.Close()

	info, err := client.OpenSession(cmd.String("session"))
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	if cmd.String("session") == "" {
		fmt.Fprintf(os.Stderr, "session: %s\n", info.SessionID)
	}

	if needsModeChange(cmd.IsSet("mode"), mode, info.Mode) {
		if _, err := client.SetMode(string(mode)); err != nil {
			return fmt.Errorf("set mode: %w", err)
		}
	}
	reqID, err := client.SendMessage(message)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("timeout waiting for response")
			}
			return fmt.Errorf("read frame: %w", err)
		}

		if frame.Type == ws.FrameTypeResponse {
			if frame.ID != reqID {
				if frame.OK != nil && !*frame.OK {
					return fmt.Errorf("gateway: %s", frame.Error)
				}
				continue
			}
			if frame.OK == nil || !*frame.OK {
				return fmt.Errorf("assistant error: %s", frame.Error)
			}
			var res ws.ReplyResult
			if err := json.Unmarshal(frame.Payload, &res); err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			out.finish(res.Answer)
			return nil
		}

		switch events.EventType(frame.Event) {
		case events.EventBlockAppend:
			var p events.BlockAppendPayload
			if json.Unmarshal(frame.Payload, &p) == nil {
				out.AppendBlock(chat.BlockKind(p.Kind), p.Text)
				out.track(p.BlockID)
			}
		case events.EventBlockUpdate:
			var p events.BlockUpdatePayload
			if json.Unmarshal(frame.Payload, &p) == nil {
				out.UpdateBlock(chat.BlockID(p.BlockID), p.Text)
			}
		}
	}
}

// needsModeChange reports whether a resumed session must switch mode. Only an
// explicit --mode changes it.
func needsModeChange(explicit bool, want chat.Mode, current string) bool {
	return explicit && string(want) != current
}

// streamPrinter is a chat.Surface for plain terminals. Block updates carry
// the full text so far; only the new suffix of the answer is written. When
// stdout is not a terminal nothing is streamed and finish prints the answer.
type streamPrinter struct {
	w        io.Writer
	thinking io.Writer
	live     bool

	kinds   map[chat.BlockID]chat.BlockKind
	printed map[chat.BlockID]string
	lastID  chat.BlockID
	wrote   bool
}

func newStreamPrinter(w io.Writer, live bool) *streamPrinter {
	return &streamPrinter{
		w:       w,
		live:    live,
		kinds:   map[chat.BlockID]chat.BlockKind{},
		printed: map[chat.BlockID]string{},
	}
}

func (p *streamPrinter) AppendBlock(kind chat.BlockKind, text string) chat.BlockID {
	id := chat.NewBlockID()
	p.kinds[id] = kind
	p.lastID = id
	p.render(id, text)
	return id
}

// track re-keys the last appended block under the id assigned by the gateway.
func (p *streamPrinter) track(remote string) {
	id := chat.BlockID(remote)
	p.kinds[id] = p.kinds[p.lastID]
	p.printed[id] = p.printed[p.lastID]
	delete(p.kinds, p.lastID)
	delete(p.printed, p.lastID)
	p.lastID = id
}

func (p *streamPrinter) UpdateBlock(id chat.BlockID, text string) {
	p.render(id, text)
}

func (p *streamPrinter) render(id chat.BlockID, text string) {
	switch p.kinds[id] {
	case chat.BlockAssistant:
		if !p.live {
			return
		}
		prev := p.printed[id]
		if strings.HasPrefix(text, prev) {
			fmt.Fprint(p.w, text[len(prev):])
		} else {
			// The text was rewritten (final split); start a fresh line.
			fmt.Fprint(p.w, "\n"+text)
		}
		p.printed[id] = text
		p.wrote = true
	case chat.BlockThinking:
		if p.thinking == nil {
			return
		}
		prev := p.printed[id]
		if prev == "" {
			fmt.Fprintln(p.thinking, "Thinking Process:")
		}
		if strings.HasPrefix(text, prev) {
			fmt.Fprint(p.thinking, text[len(prev):])
		}
		p.printed[id] = text
	case chat.BlockNotice:
		fmt.Fprintln(os.Stderr, text)
	}
}

// finish writes whatever the stream did not show.
func (p *streamPrinter) finish(answer string) {
	if p.thinking != nil {
		fmt.Fprintln(p.thinking)
	}
	if p.wrote {
		fmt.Fprintln(p.w)
		return
	}
	fmt.Fprintln(p.w, answer)
}
