package perception

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// OllamaClient calls a local Ollama server. It needs no credentials and is the
// offline fallback.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

// NewOllamaClient creates the local provider.
func NewOllamaClient(cfg ClientConfig) *OllamaClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "http://localhost:11434"
	}
	return &OllamaClient{baseURL: base, model: cfg.Model, httpClient: cfg.httpClient()}
}

// Name returns the provider name.
func (c *OllamaClient) Name() string { return ProviderOllama }

// Complete runs a non-streaming chat in JSON format.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (string, error) {
	logging.PerceptionDebug("[Ollama] Complete: model=%s user_len=%d", c.model, len(req.User))
	raw, err := postJSON(ctx, c.httpClient, c.baseURL+"/api/chat", nil, ollamaRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Format:  "json",
		Options: map[string]any{"temperature": defaultTemperature},
	})
	if err != nil {
		return "", err
	}
	if msg := gjson.GetBytes(raw, "error"); msg.Exists() {
		return "", fmt.Errorf("API error: %s", msg.String())
	}
	out := strings.TrimSpace(gjson.GetBytes(raw, "message.content").String())
	if out == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return out, nil
}
