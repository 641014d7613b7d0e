package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for thinkchat.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Models    ModelsConfig    `json:"models" yaml:"models"`
	Assistant AssistantConfig `json:"assistant" yaml:"assistant"`
	Events    EventsConfig    `json:"events" yaml:"events"`
	Sessions  SessionsConfig  `json:"sessions" yaml:"sessions"`
	Feedback  FeedbackConfig  `json:"feedback" yaml:"feedback"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	// Host defaults to 127.0.0.1. The API has no authentication and
	// /api/events and /api/sessions/{id} expose every session's transcript,
	// so bind other interfaces only behind a trusted proxy.
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default" yaml:"default"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig configures a single completion endpoint.
type ProviderConfig struct {
	Driver        string         `json:"driver" yaml:"driver"` // "cerebras", "openai", "mistral", "ollama", "anthropic", "gemini"
	Model         string         `json:"model" yaml:"model"`
	BaseURL       string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Auth          AuthConfig     `json:"auth" yaml:"auth"`
	MaxTokens     int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	ContextWindow int            `json:"context_window,omitempty" yaml:"context_window,omitempty"`
	Timeout       Duration       `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Options       map[string]any `json:"options,omitempty" yaml:"options,omitempty"` // temperature, top_p
}

// OptionFloat reads a numeric option whatever the decoder produced for it.
func (p ProviderConfig) OptionFloat(key string) (float32, bool) {
	switch v := p.Options[key].(type) {
	case float64:
		return float32(v), true
	case float32:
		return v, true
	case int:
		return float32(v), true
	case int64:
		return float32(v), true
	default:
		return 0, false
	}
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Direct API key, ${VAR} or ${{ .Env.VAR }} template
}

// AssistantConfig tunes the conversational core.
type AssistantConfig struct {
	SimplePrompt  string `json:"simple_prompt,omitempty" yaml:"simple_prompt,omitempty"`
	ComplexPrompt string `json:"complex_prompt,omitempty" yaml:"complex_prompt,omitempty"`
	HistoryLimit  int    `json:"history_limit,omitempty" yaml:"history_limit,omitempty"` // 0 = replay everything
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size" yaml:"buffer_size"`
	// Journal writes every event as JSONL under LogDir. Nothing reads it back.
	Journal bool   `json:"journal,omitempty" yaml:"journal,omitempty"`
	LogDir  string `json:"log_dir,omitempty" yaml:"log_dir,omitempty"`
}

// SessionsConfig controls in-memory session lifetime.
type SessionsConfig struct {
	IdleTTL    Duration `json:"idle_ttl,omitempty" yaml:"idle_ttl,omitempty"`
	SweepEvery string   `json:"sweep_every,omitempty" yaml:"sweep_every,omitempty"` // cron spec
}

// FeedbackConfig locates the feedback database.
type FeedbackConfig struct {
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Duration wraps time.Duration for JSON and YAML unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	dur, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
