// Package config loads sheetsmith settings from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all sheetsmith configuration.
type Config struct {
	// Model orchestration
	Provider      string          `yaml:"provider"` // auto or a provider name
	FreeTierOnly  bool            `yaml:"free_tier_only"`
	LocalFallback bool            `yaml:"local_fallback"`
	LLMTimeout    string          `yaml:"llm_timeout"`
	Providers     ProvidersConfig `yaml:"providers"`

	// Record applied plans as community examples
	CommunityLearning bool `yaml:"community_learning"`

	RAG      RAGConfig      `yaml:"rag"`
	Training TrainingConfig `yaml:"training"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`

	// Directory of curated example YAML files, watched for changes.
	ExamplesDir string `yaml:"examples_dir"`
}

// RAGConfig tunes context retrieval.
type RAGConfig struct {
	TopK       int `yaml:"top_k"`
	MaxExcerpt int `yaml:"max_excerpt"` // runes
}

// TrainingConfig tunes the sandbox generator.
type TrainingConfig struct {
	CacheSize   int `yaml:"cache_size"`
	MaxAttempts int `yaml:"max_attempts"`
}

// StoreConfig locates the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAuto,
		LocalFallback:     true,
		LLMTimeout:        "25s",
		Providers:         DefaultProviders(),
		CommunityLearning: true,
		RAG: RAGConfig{
			TopK:       8,
			MaxExcerpt: 700,
		},
		Training: TrainingConfig{
			CacheSize:   64,
			MaxAttempts: 42,
		},
		Store: StoreConfig{
			Path: "data/sheetsmith.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		ExamplesDir: "examples",
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetLLMTimeout returns the default per-call model timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLMTimeout)
	if err != nil || d <= 0 {
		return 25 * time.Second
	}
	return d
}

// Validate validates the configuration. Missing API keys are not an error:
// the heuristic parser works without any model.
func (c *Config) Validate() error {
	if !IsValidProvider(c.Provider) {
		return fmt.Errorf("invalid provider: %s (valid: %v)", c.Provider, ValidProviders)
	}
	if c.LLMTimeout != "" {
		if d, err := time.ParseDuration(c.LLMTimeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid llm_timeout %q", c.LLMTimeout)
		}
	}
	for _, name := range ProviderNames {
		pc, _ := c.Providers.Get(name)
		if pc.Timeout == "" {
			continue
		}
		if d, err := time.ParseDuration(pc.Timeout); err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q for provider %s", pc.Timeout, name)
		}
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.MaxExcerpt <= 0 {
		return fmt.Errorf("rag.max_excerpt must be positive, got %d", c.RAG.MaxExcerpt)
	}
	if c.Training.MaxAttempts <= 0 {
		return fmt.Errorf("training.max_attempts must be positive, got %d", c.Training.MaxAttempts)
	}
	return nil
}
