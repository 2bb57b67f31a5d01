// Package logging provides config-driven categorized logging for sheetsmith.
// Every category is a named child of one zap logger. Categories can be
// switched off individually; a disabled category logs to a no-op core.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and config
	CategoryAPI        Category = "api"        // Provider HTTP calls
	CategoryPerception Category = "perception" // Model orchestration and reply parsing
	CategoryHeuristic  Category = "heuristic"  // Rule-based parser
	CategoryEngine     Category = "engine"     // Patch application
	CategoryRetrieval  Category = "retrieval"  // Context ranking and example files
	CategoryAssistant  Category = "assistant"  // Request controller
	CategoryTraining   Category = "training"   // Coaching and sandbox
	CategoryStore      Category = "store"      // Persistence adapter
	CategoryAudit      Category = "audit"      // Mutation and provider audit trail
)

// Config mirrors config.LoggingConfig to avoid an import cycle.
type Config struct {
	Level       string          `yaml:"level"`
	Development bool            `yaml:"development"` // console encoder instead of JSON
	Categories  map[string]bool `yaml:"categories"`
}

// Logger wraps a sugared zap logger with the printf-style API used across
// the codebase.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	enabled map[string]bool
	loggers = make(map[Category]*Logger)
)

// Initialize builds the root logger from cfg.
func Initialize(cfg Config) error {
	level := zap.NewAtomicLevel()
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	SetRoot(l, cfg.Categories)
	Get(CategoryBoot).Debug("logging initialized (level=%s, development=%v)", level.Level(), cfg.Development)
	return nil
}

// SetRoot installs an existing zap logger, e.g. the one the CLI built or
// zap.NewNop / an observer in tests. categories may be nil (all enabled).
func SetRoot(l *zap.Logger, categories map[string]bool) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = l
	enabled = categories
	loggers = make(map[Category]*Logger)
}

// Root returns the root logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Sync flushes buffered entries. Safe to call at shutdown.
func Sync() {
	_ = Root().Sync()
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	if enabled == nil {
		return true
	}
	on, exists := enabled[string(category)]
	return !exists || on
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	on := IsCategoryEnabled(category)

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	base := zap.NewNop()
	if on {
		base = root.Named(string(category))
	}
	l := &Logger{category: category, sugar: base.Sugar()}
	loggers[category] = l
	return l
}

// Zap exposes the underlying structured logger.
func (l *Logger) Zap() *zap.Logger { return l.sugar.Desugar() }

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// WithRequestID creates a request-scoped logger.
func WithRequestID(category Category, requestID string) *Logger {
	return Get(category).With("req", requestID)
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...interface{})  { Get(CategoryBoot).Warn(format, args...) }

func API(format string, args ...interface{})      { Get(CategoryAPI).Info(format, args...) }
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }
func APIWarn(format string, args ...interface{})  { Get(CategoryAPI).Warn(format, args...) }

func Perception(format string, args ...interface{})      { Get(CategoryPerception).Info(format, args...) }
func PerceptionDebug(format string, args ...interface{}) { Get(CategoryPerception).Debug(format, args...) }
func PerceptionWarn(format string, args ...interface{})  { Get(CategoryPerception).Warn(format, args...) }
func PerceptionError(format string, args ...interface{}) { Get(CategoryPerception).Error(format, args...) }

func HeuristicDebug(format string, args ...interface{}) { Get(CategoryHeuristic).Debug(format, args...) }
func HeuristicWarn(format string, args ...interface{})  { Get(CategoryHeuristic).Warn(format, args...) }

func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }

func Retrieval(format string, args ...interface{})      { Get(CategoryRetrieval).Info(format, args...) }
func RetrievalDebug(format string, args ...interface{}) { Get(CategoryRetrieval).Debug(format, args...) }
func RetrievalWarn(format string, args ...interface{})  { Get(CategoryRetrieval).Warn(format, args...) }

func Assistant(format string, args ...interface{})      { Get(CategoryAssistant).Info(format, args...) }
func AssistantDebug(format string, args ...interface{}) { Get(CategoryAssistant).Debug(format, args...) }
func AssistantWarn(format string, args ...interface{})  { Get(CategoryAssistant).Warn(format, args...) }
func AssistantError(format string, args ...interface{}) { Get(CategoryAssistant).Error(format, args...) }

func TrainingDebug(format string, args ...interface{}) { Get(CategoryTraining).Debug(format, args...) }

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{}) { Get(CategoryStore).Debug(format, args...) }
func StoreError(format string, args ...interface{}) { Get(CategoryStore).Error(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
