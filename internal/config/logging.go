package config

import "github.com/Marpuchy/dnd-manager-sub001/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level       string          `yaml:"level"`                // debug, info, warn, error
	Development bool            `yaml:"development"`          // console output instead of JSON
	Categories  map[string]bool `yaml:"categories,omitempty"` // per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Unlisted categories are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// ZapConfig converts the section into the logging package's config.
func (c *LoggingConfig) ZapConfig() logging.Config {
	return logging.Config{
		Level:       c.Level,
		Development: c.Development,
		Categories:  c.Categories,
	}
}
