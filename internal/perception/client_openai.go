package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// OpenAIClient speaks the OpenAI chat completions API. Groq and OpenRouter
// expose the same wire shape and reuse it under their own names.
type OpenAIClient struct {
	name       string
	apiKey     string
	baseURL    string
	model      string
	headers    map[string]string
	jsonMode   bool
	httpClient *http.Client
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []chatMessage         `json:"messages"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Temperature    float64               `json:"temperature"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

// NewOpenAIClient creates the OpenAI provider.
func NewOpenAIClient(cfg ClientConfig) *OpenAIClient {
	return newOpenAICompatible(ProviderOpenAI, cfg, "https://api.openai.com/v1", true)
}

// NewGroqClient creates the Groq provider.
func NewGroqClient(cfg ClientConfig) *OpenAIClient {
	return newOpenAICompatible(ProviderGroq, cfg, "https://api.groq.com/openai/v1", true)
}

// NewOpenRouterClient creates the OpenRouter provider. Free OpenRouter models
// often reject response_format, so JSON is requested through the prompt only.
func NewOpenRouterClient(cfg ClientConfig, siteURL, siteName string) *OpenAIClient {
	c := newOpenAICompatible(ProviderOpenRouter, cfg, "https://openrouter.ai/api/v1", false)
	if siteURL != "" {
		c.headers["HTTP-Referer"] = siteURL
	}
	if siteName != "" {
		c.headers["X-Title"] = siteName
	}
	return c
}

func newOpenAICompatible(name string, cfg ClientConfig, defaultURL string, jsonMode bool) *OpenAIClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultURL
	}
	return &OpenAIClient{
		name:       name,
		apiKey:     cfg.APIKey,
		baseURL:    base,
		model:      cfg.Model,
		headers:    make(map[string]string),
		jsonMode:   jsonMode,
		httpClient: cfg.httpClient(),
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return c.name }

// Complete sends the system and user messages and returns the first choice.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	start := time.Now()
	logging.PerceptionDebug("[%s] Complete: model=%s user_len=%d", c.name, c.model, len(req.User))

	body := openAIRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
	if c.jsonMode {
		body.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	for k, v := range c.headers {
		headers[k] = v
	}
	raw, err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", headers, body)
	if err != nil {
		return "", err
	}

	if msg := gjson.GetBytes(raw, "error.message"); msg.Exists() {
		return "", fmt.Errorf("API error: %s", msg.String())
	}
	content := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if content == "" {
		return "", fmt.Errorf("no completion returned")
	}
	logging.PerceptionDebug("[%s] Complete: completed in %v response_len=%d", c.name, time.Since(start), len(content))
	return content, nil
}

// postJSON posts body and returns the response bytes of a 2xx reply.
func postJSON(ctx context.Context, hc *http.Client, url string, headers map[string]string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
