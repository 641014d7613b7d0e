package config

import (
	"os"
	"path/filepath"
)

// HomePath returns the root directory for thinkchat data.
// It uses $THINKCHAT_PATH if set, otherwise defaults to ~/.thinkchat.
func HomePath() string {
	if v := os.Getenv("THINKCHAT_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".thinkchat")
	}
	return filepath.Join(home, ".thinkchat")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(HomePath(), "config.jsonc")
}

// DotenvPath returns the path to the data-dir .env file.
func DotenvPath() string {
	return filepath.Join(HomePath(), ".env")
}

// HeartbeatPath returns the path of the gateway heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(HomePath(), "heartbeat.json")
}

// FeedbackDBPath returns the default feedback database path.
func FeedbackDBPath() string {
	return filepath.Join(HomePath(), "feedback.db")
}

// EventLogDir returns the default event journal directory.
func EventLogDir() string {
	return filepath.Join(HomePath(), "logs", "events")
}
