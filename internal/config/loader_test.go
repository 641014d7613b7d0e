package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514",
				"auth": {
					"api_key": "${{ .Env.ANTHROPIC_API_KEY }}"
				},
				"max_tokens": 4096
			}
		}
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "test-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Models.Default != "claude" {
		t.Errorf("expected default claude, got %s", cfg.Models.Default)
	}

	p, ok := cfg.Models.Providers["claude"]
	if !ok {
		t.Fatal("expected claude provider")
	}
	if p.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", p.Auth.APIKey)
	}
	if p.MaxTokens != 4096 {
		t.Errorf("expected max_tokens 4096, got %d", p.MaxTokens)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18421 {
		t.Errorf("expected default port 18421, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Sessions.IdleTTL.Duration() != 2*time.Hour {
		t.Errorf("expected default idle ttl 2h, got %s", cfg.Sessions.IdleTTL.Duration())
	}
	if cfg.Models.Default != DefaultProvider {
		t.Errorf("expected default provider %s, got %s", DefaultProvider, cfg.Models.Default)
	}

	p := cfg.Models.Providers[DefaultProvider]
	if p.Model != "llama-3.3-70b" {
		t.Errorf("expected model llama-3.3-70b, got %s", p.Model)
	}
	if p.MaxTokens != 8000 {
		t.Errorf("expected max_tokens 8000, got %d", p.MaxTokens)
	}
	if temp, ok := p.OptionFloat("temperature"); !ok || temp != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", temp)
	}
	if topP, ok := p.OptionFloat("top_p"); !ok || topP != 1 {
		t.Errorf("expected top_p 1, got %v", topP)
	}
}

func TestLoadYAML(t *testing.T) {
	content := `gateway:
  port: 8080
assistant:
  history_limit: 6
sessions:
  idle_ttl: 30m
models:
  providers:
    local:
      driver: ollama
      model: llama3.2
      options:
        temperature: 0.7
`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Gateway.Port)
	}
	if cfg.Assistant.HistoryLimit != 6 {
		t.Errorf("expected history_limit 6, got %d", cfg.Assistant.HistoryLimit)
	}
	if cfg.Sessions.IdleTTL.Duration() != 30*time.Minute {
		t.Errorf("expected idle ttl 30m, got %s", cfg.Sessions.IdleTTL.Duration())
	}
	// A single provider becomes the default.
	if cfg.Models.Default != "local" {
		t.Errorf("expected default local, got %q", cfg.Models.Default)
	}
	if temp, _ := cfg.Models.Providers["local"].OptionFloat("temperature"); temp != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", temp)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.jsonc"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 18421 {
		t.Errorf("expected default port, got %d", cfg.Gateway.Port)
	}
}

func TestLoad_TrailingComma(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(`{"gateway": {"port": 9000,},}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Gateway.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Gateway.Port)
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
