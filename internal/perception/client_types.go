// Package perception turns a prompt plus campaign context into a raw plan by
// asking external language models. Providers are tried one at a time in a
// fixed order, each attempt bounded by its own timeout.
package perception

import (
	"context"
	"net/http"
	"time"
)

// Provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Request is the provider-neutral model call.
type Request struct {
	System string // operating rules
	User   string // JSON payload from BuildPayload
}

// Provider is one model backend.
type Provider interface {
	Name() string
	// Complete returns the raw reply text. Implementations must honor ctx
	// cancellation.
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientConfig configures an HTTP-backed provider.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds the HTTP client. Per-attempt timeouts are applied by the
	// orchestrator through the context.
	Timeout time.Duration
}

func (c ClientConfig) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.2
)

// chatMessage is the OpenAI/Ollama chat message shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
