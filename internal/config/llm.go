package config

import "time"

// Provider names.
const (
	ProviderAuto       = "auto"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderGroq       = "groq"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// ProviderNames lists every concrete provider.
var ProviderNames = []string{
	ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderGroq, ProviderOpenRouter, ProviderOllama,
}

// ValidProviders lists the accepted values of Config.Provider.
var ValidProviders = append([]string{ProviderAuto}, ProviderNames...)

// IsValidProvider reports whether name is auto or a known provider. The empty
// string means auto.
func IsValidProvider(name string) bool {
	if name == "" {
		return true
	}
	for _, p := range ValidProviders {
		if p == name {
			return true
		}
	}
	return false
}

// ProviderConfig configures one model provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout,omitempty"` // empty: llm_timeout
}

// ProvidersConfig holds per-provider settings.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `yaml:"openai"`
	Anthropic  ProviderConfig `yaml:"anthropic"`
	Gemini     ProviderConfig `yaml:"gemini"`
	Groq       ProviderConfig `yaml:"groq"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Ollama     ProviderConfig `yaml:"ollama"`
}

// DefaultProviders returns endpoints and models for every provider. Keys are
// never defaulted.
func DefaultProviders() ProvidersConfig {
	return ProvidersConfig{
		OpenAI: ProviderConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Anthropic: ProviderConfig{
			BaseURL: "https://api.anthropic.com/v1",
			Model:   "claude-3-5-haiku-latest",
		},
		Gemini: ProviderConfig{
			Model: "gemini-2.0-flash",
		},
		Groq: ProviderConfig{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama-3.3-70b-versatile",
		},
		OpenRouter: ProviderConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "meta-llama/llama-3.3-70b-instruct:free",
		},
		Ollama: ProviderConfig{
			BaseURL: "http://localhost:11434",
			Model:   "llama3.1",
			Timeout: "60s",
		},
	}
}

// Get returns the settings of the named provider.
func (p *ProvidersConfig) Get(name string) (ProviderConfig, bool) {
	switch name {
	case ProviderOpenAI:
		return p.OpenAI, true
	case ProviderAnthropic:
		return p.Anthropic, true
	case ProviderGemini:
		return p.Gemini, true
	case ProviderGroq:
		return p.Groq, true
	case ProviderOpenRouter:
		return p.OpenRouter, true
	case ProviderOllama:
		return p.Ollama, true
	}
	return ProviderConfig{}, false
}

// ProviderTimeout returns the per-call timeout of the named provider, falling
// back to llm_timeout.
func (c *Config) ProviderTimeout(name string) time.Duration {
	pc, ok := c.Providers.Get(name)
	if ok && pc.Timeout != "" {
		if d, err := time.ParseDuration(pc.Timeout); err == nil && d > 0 {
			return d
		}
	}
	return c.GetLLMTimeout()
}

// HasCredentials reports whether the provider can be called. Ollama needs
// only an endpoint.
func (c *Config) HasCredentials(name string) bool {
	pc, ok := c.Providers.Get(name)
	if !ok {
		return false
	}
	if name == ProviderOllama {
		return pc.BaseURL != ""
	}
	return pc.APIKey != ""
}
