package config

import (
	"os"

	"github.com/spf13/cast"
)

// applyEnvOverrides applies environment variable overrides. Unparseable
// flag and number values are ignored.
func (c *Config) applyEnvOverrides() {
	// Provider credentials
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Providers.OpenAI.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.Providers.Anthropic.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Providers.Gemini.APIKey = key
	} else if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.Providers.Gemini.APIKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.Providers.Groq.APIKey = key
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		c.Providers.OpenRouter.APIKey = key
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.Providers.Ollama.BaseURL = url
	}

	if p := os.Getenv("SHEETSMITH_PROVIDER"); p != "" {
		c.Provider = p
	}
	if t := os.Getenv("SHEETSMITH_LLM_TIMEOUT"); t != "" {
		c.LLMTimeout = t
	}

	envBool("SHEETSMITH_FREE_TIER_ONLY", &c.FreeTierOnly)
	envBool("SHEETSMITH_LOCAL_FALLBACK", &c.LocalFallback)
	envBool("SHEETSMITH_COMMUNITY_LEARNING", &c.CommunityLearning)
	envInt("SHEETSMITH_RAG_TOP_K", &c.RAG.TopK)
	envInt("SHEETSMITH_RAG_MAX_EXCERPT", &c.RAG.MaxExcerpt)

	if path := os.Getenv("SHEETSMITH_DB"); path != "" {
		c.Store.Path = path
	}
	if dir := os.Getenv("SHEETSMITH_EXAMPLES_DIR"); dir != "" {
		c.ExamplesDir = dir
	}
	if lvl := os.Getenv("SHEETSMITH_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

func envBool(name string, dst *bool) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if b, err := cast.ToBoolE(v); err == nil {
		*dst = b
	}
}

func envInt(name string, dst *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := cast.ToIntE(v); err == nil {
		*dst = n
	}
}
