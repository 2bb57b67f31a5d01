package perception

import (
	"context"
	"time"

	"github.com/Marpuchy/dnd-manager-sub001/internal/config"
	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
)

// NewFromConfig builds an orchestrator with every provider that has
// credentials. Providers that fail to initialize are logged and skipped.
func NewFromConfig(ctx context.Context, cfg *config.Config) *Orchestrator {
	timeouts := make(map[string]time.Duration, len(config.ProviderNames))
	var providers []Provider

	for _, name := range config.ProviderNames {
		if !cfg.HasCredentials(name) {
			continue
		}
		if name == ProviderOllama && !cfg.LocalFallback && cfg.Provider != ProviderOllama {
			continue
		}
		pc, _ := cfg.Providers.Get(name)
		timeout := cfg.ProviderTimeout(name)
		timeouts[name] = timeout
		cc := ClientConfig{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: pc.Model, Timeout: timeout + 5*time.Second}

		switch name {
		case ProviderOpenAI:
			providers = append(providers, NewOpenAIClient(cc))
		case ProviderGroq:
			providers = append(providers, NewGroqClient(cc))
		case ProviderOpenRouter:
			providers = append(providers, NewOpenRouterClient(cc, "", "sheetsmith"))
		case ProviderAnthropic:
			providers = append(providers, NewAnthropicClient(cc))
		case ProviderOllama:
			providers = append(providers, NewOllamaClient(cc))
		case ProviderGemini:
			g, err := NewGeminiClient(ctx, cc)
			if err != nil {
				logging.PerceptionWarn("gemini disabled: %v", err)
				continue
			}
			providers = append(providers, g)
		}
	}

	o := NewOrchestrator(OrchestratorConfig{
		Preference:     cfg.Provider,
		FreeTierOnly:   cfg.FreeTierOnly,
		LocalFallback:  cfg.LocalFallback,
		Timeouts:       timeouts,
		DefaultTimeout: cfg.GetLLMTimeout(),
	}, providers...)
	logging.Boot("model providers in order: %v", o.Names())
	return o
}
