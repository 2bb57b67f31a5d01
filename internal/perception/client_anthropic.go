package perception

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// AnthropicClient speaks the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// NewAnthropicClient creates the Anthropic provider.
func NewAnthropicClient(cfg ClientConfig) *AnthropicClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.anthropic.com/v1"
	}
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      cfg.Model,
		httpClient: cfg.httpClient(),
	}
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string { return ProviderAnthropic }

// Complete sends one user message and concatenates the text blocks of the
// reply.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	logging.PerceptionDebug("[Anthropic] Complete: model=%s user_len=%d", c.model, len(req.User))

	raw, err := postJSON(ctx, c.httpClient, c.baseURL+"/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}, anthropicRequest{
		Model:       c.model,
		MaxTokens:   defaultMaxTokens,
		System:      req.System,
		Messages:    []chatMessage{{Role: "user", Content: req.User}},
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", err
	}

	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return "", fmt.Errorf("API error: %s", msg.String())
	}
	var b strings.Builder
	for _, block := range gjson.GetBytes(raw, "content").Array() {
		if block.Get("type").String() == "text" {
			b.WriteString(block.Get("text").String())
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return out, nil
}
