package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// DefaultProvider is the provider name used when none is configured.
const DefaultProvider = "cerebras"

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a config file, expands ${{ .Env.VAR }} templates, unmarshals it
// into Config and applies defaults. Files ending in .yaml or .yml are parsed
// as YAML; anything else as JSON with comments and trailing commas.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before parsing, since templates are in strings)
	expanded := []byte(expandEnvTemplates(string(data)))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml config: %w", err)
		}
	default:
		std, err := hujson.Standardize(expanded)
		if err != nil {
			return nil, fmt.Errorf("parse jsonc config: %w", err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns the default config when the
// file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18421
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Events.LogDir == "" {
		cfg.Events.LogDir = EventLogDir()
	}
	if cfg.Sessions.IdleTTL == 0 {
		cfg.Sessions.IdleTTL = Duration(2 * time.Hour)
	}
	if cfg.Sessions.SweepEvery == "" {
		cfg.Sessions.SweepEvery = "@every 10m"
	}
	if cfg.Feedback.DBPath == "" {
		cfg.Feedback.DBPath = FeedbackDBPath()
	}

	if cfg.Models.Providers == nil {
		cfg.Models.Providers = make(map[string]ProviderConfig)
	}
	if len(cfg.Models.Providers) == 0 {
		cfg.Models.Providers[DefaultProvider] = ProviderConfig{Driver: "cerebras"}
	}
	if cfg.Models.Default == "" {
		if _, ok := cfg.Models.Providers[DefaultProvider]; ok {
			cfg.Models.Default = DefaultProvider
		} else if len(cfg.Models.Providers) == 1 {
			for name := range cfg.Models.Providers {
				cfg.Models.Default = name
			}
		}
	}

	// Generation parameters of the reference deployment.
	for name, p := range cfg.Models.Providers {
		if p.Driver == "" {
			p.Driver = name
		}
		if p.Driver == "cerebras" && p.Model == "" {
			p.Model = "llama-3.3-70b"
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = 8000
		}
		if p.Options == nil {
			p.Options = make(map[string]any)
		}
		if _, ok := p.Options["temperature"]; !ok {
			p.Options["temperature"] = 0.2
		}
		if _, ok := p.Options["top_p"]; !ok {
			p.Options["top_p"] = 1.0
		}
		cfg.Models.Providers[name] = p
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}
