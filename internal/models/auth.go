package models

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/threatthriver/thinkchat/internal/config"
)

// ErrMissingAPIKey is returned when no credential can be found for a driver
// that needs one. Nothing is sent to the endpoint in that case.
var ErrMissingAPIKey = errors.New("missing API key")

// defaultKeyEnv maps drivers to the env var holding their API key.
var defaultKeyEnv = map[string]string{
	"cerebras":  "CEREBRAS_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ResolvedAuth holds the resolved credential.
type ResolvedAuth struct {
	Value string
	// Source names where the key came from ("config" or an env var).
	Source string
}

// KeyEnv returns the default env var for a driver, or "" if it needs none.
func KeyEnv(driver string) string {
	return defaultKeyEnv[strings.ToLower(driver)]
}

// ResolveAuth resolves the API key for a provider.
// Resolution order: direct api_key (or ${VAR}) → driver default env.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	if key := strings.TrimSpace(cfg.Auth.APIKey); key != "" {
		if strings.HasPrefix(key, "${") && strings.HasSuffix(key, "}") {
			name := key[2 : len(key)-1]
			if v := os.Getenv(name); v != "" {
				return ResolvedAuth{Value: v, Source: name}, nil
			}
			return ResolvedAuth{}, fmt.Errorf("%w: %s not set", ErrMissingAPIKey, name)
		}
		return ResolvedAuth{Value: key, Source: "config"}, nil
	}

	env := KeyEnv(cfg.Driver)
	if env == "" {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	if v := os.Getenv(env); v != "" {
		return ResolvedAuth{Value: v, Source: env}, nil
	}
	return ResolvedAuth{}, fmt.Errorf("%w: %s not set", ErrMissingAPIKey, env)
}
