// Package heartbeat records a running gateway in the data dir so that
// "thinkchat status" can find it without dialing the gateway.
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultInterval is how often a gateway refreshes its beat.
const DefaultInterval = 30 * time.Second

// State is what a reader concludes from the beat file.
type State string

const (
	StateRunning State = "running"
	StateStale   State = "stale"
	StateStopped State = "stopped"
)

// Beat is the content of the heartbeat file.
type Beat struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Sessions  int       `json:"sessions"`
	StartedAt time.Time `json:"started_at"`
	At        time.Time `json:"at"`
}

// Uptime is the gateway's age as of the last beat.
func (b Beat) Uptime() time.Duration {
	return b.At.Sub(b.StartedAt).Truncate(time.Second)
}

// Writer keeps the heartbeat file fresh while a gateway runs.
type Writer struct {
	path     string
	interval time.Duration
	beat     Beat
	sessions func() int
}

// NewWriter returns a writer for path. base carries the gateway's address and
// model; sessions, if non-nil, reports the live session count at each beat.
func NewWriter(path string, base Beat, sessions func() int) *Writer {
	return &Writer{path: path, interval: DefaultInterval, beat: base, sessions: sessions}
}

// Run writes a beat immediately and then every interval until ctx is done,
// then removes the file. It fails only if the first beat cannot be written.
func (w *Writer) Run(ctx context.Context) error {
	w.beat.PID = os.Getpid()
	w.beat.StartedAt = time.Now()
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("heartbeat dir: %w", err)
	}
	if err := w.write(); err != nil {
		return err
	}
	defer os.Remove(w.path)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.write(); err != nil {
				slog.Warn("heartbeat write failed", "path", w.path, "error", err)
			}
		}
	}
}

func (w *Writer) write() error {
	w.beat.At = time.Now()
	if w.sessions != nil {
		w.beat.Sessions = w.sessions()
	}
	data, err := json.MarshalIndent(w.beat, "", "  ")
	if err != nil {
		return err
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return os.Rename(tmp, w.path)
}

// Read loads the beat at path. A missing file means the gateway is stopped;
// a beat older than maxAge means it stopped without cleaning up.
func Read(path string, maxAge time.Duration) (State, Beat, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StateStopped, Beat{}, nil
	}
	if err != nil {
		return StateStopped, Beat{}, fmt.Errorf("read heartbeat: %w", err)
	}

	var b Beat
	if err := json.Unmarshal(data, &b); err != nil {
		return StateStopped, Beat{}, fmt.Errorf("decode heartbeat %s: %w", path, err)
	}
	if time.Since(b.At) > maxAge {
		return StateStale, b, nil
	}
	return StateRunning, b, nil
}
