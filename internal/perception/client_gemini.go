package perception

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// GeminiClient calls Gemini through the genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates the Gemini provider. BaseURL, when set, replaces
// the public endpoint.
func NewGeminiClient(ctx context.Context, cfg ClientConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.httpClient(),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return ProviderGemini }

// Complete generates one JSON reply.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	logging.PerceptionDebug("[Gemini] Complete: model=%s user_len=%d", c.model, len(req.User))

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       genai.Ptr[float32](defaultTemperature),
		MaxOutputTokens:   defaultMaxTokens,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return out, nil
}
