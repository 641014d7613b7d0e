package models

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/threatthriver/thinkchat/internal/config"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.3"
	defaultOllamaTimeout = 300 * time.Second
)

// NewOllama creates a ChatModel for a local or proxied Ollama server.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultOllamaModel
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = defaultOllamaTimeout
	}

	return einoollama.NewChatModel(ctx, &einoollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   modelName,
		Timeout: timeout,
		Options: ollamaOptions(cfg),
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: &ollamaTransport{inner: http.DefaultTransport, provider: "ollama"},
		},
	})
}

// ollamaOptions maps the provider's generation settings onto Ollama's
// runtime options. An explicit num_predict option wins over max_tokens.
func ollamaOptions(cfg config.ProviderConfig) *einoollama.Options {
	opts := &einoollama.Options{NumPredict: cfg.MaxTokens}
	if v, ok := cfg.OptionFloat("temperature"); ok {
		opts.Temperature = v
	}
	if v, ok := cfg.OptionFloat("top_p"); ok {
		opts.TopP = v
	}
	if v, ok := cfg.OptionFloat("top_k"); ok {
		opts.TopK = int(v)
	}
	if v, ok := cfg.OptionFloat("num_ctx"); ok {
		opts.NumCtx = int(v)
	} else if cfg.ContextWindow > 0 {
		opts.NumCtx = cfg.ContextWindow
	}
	if v, ok := cfg.OptionFloat("num_predict"); ok {
		opts.NumPredict = int(v)
	}
	return opts
}

// ollamaTransport turns proxy failures in front of Ollama into
// ErrModelUnavailable. A reverse proxy answering "no available server" in
// plain text would otherwise surface as a JSON decode error mid-stream.
type ollamaTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *ollamaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}
	if resp.StatusCode < 400 && isJSONContent(resp.Header.Get("Content-Type")) {
		return resp, nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()
	return nil, &ErrModelUnavailable{
		Provider: t.provider,
		Body:     strings.TrimSpace(string(body)),
	}
}

// isJSONContent accepts application/json, application/x-ndjson and a
// missing header.
func isJSONContent(ct string) bool {
	return ct == "" || strings.Contains(ct, "json")
}
