// Command sheetsmith edits D&D character sheets from natural-language
// prompts against a local SQLite campaign database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Marpuchy/dnd-manager-sub001/internal/assistant"
	"github.com/Marpuchy/dnd-manager-sub001/internal/config"
	"github.com/Marpuchy/dnd-manager-sub001/internal/heuristic"
	"github.com/Marpuchy/dnd-manager-sub001/internal/logging"
	"github.com/Marpuchy/dnd-manager-sub001/internal/perception"
	"github.com/Marpuchy/dnd-manager-sub001/internal/retrieval"
	"github.com/Marpuchy/dnd-manager-sub001/internal/sheet"
	"github.com/Marpuchy/dnd-manager-sub001/internal/store"
	"github.com/Marpuchy/dnd-manager-sub001/internal/training"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	timeout    time.Duration
	jsonOutput bool

	// Request identity
	campaignID string
	userID     string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sheetsmith",
	Short: "Natural-language character sheet editor",
	Long: `sheetsmith turns prompts like "add a +1 longsword to Kaelden" into validated
changes to a character sheet and applies them to a campaign database.

Structured item blocks and batch requests are parsed locally. Everything else
goes to the first model provider with credentials.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Store.Path = dbPath
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Development {
			zcfg = zap.NewDevelopmentConfig()
		}
		level := zapcore.WarnLevel
		if cfg.Logging.Level != "" {
			if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
			}
		}
		if verbose {
			level = zapcore.DebugLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetRoot(logger, cfg.Logging.Categories)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sheetsmith.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print the raw JSON response")
	rootCmd.PersistentFlags().StringVar(&campaignID, "campaign", "", "Campaign id")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Acting user id")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bounds a command by --timeout and cancels on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

// app is everything a request needs. close releases it.
type app struct {
	store    *store.SQLiteStore
	examples *retrieval.ExampleDir
	service  *assistant.Service
}

func (r *app) close() {
	if r.examples != nil {
		r.examples.Stop()
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}
}

// openApp wires the store, model providers, example files and the
// service from cfg. withModels=false leaves the service heuristic-only.
func openApp(ctx context.Context, withModels bool) (*app, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	rt := &app{store: st}

	parser := heuristic.NewParser()
	engine := sheet.NewEngine()
	opts := []assistant.Option{
		assistant.WithEngine(engine),
		assistant.WithRetriever(retrieval.NewRetriever(&retrieval.RetrieverConfig{
			TopK:       cfg.RAG.TopK,
			MaxExcerpt: cfg.RAG.MaxExcerpt,
		})),
		assistant.WithSandbox(training.NewSandbox(
			training.NewSignatureCache(cfg.Training.CacheSize),
			parser, engine,
			training.SandboxConfig{MaxAttempts: cfg.Training.MaxAttempts},
		)),
		assistant.WithConfig(assistant.ServiceConfig{
			CommunityLearning: cfg.CommunityLearning,
			CommunityLimit:    assistant.DefaultServiceConfig().CommunityLimit,
		}),
		assistant.WithCommunity(st),
	}

	if cfg.ExamplesDir != "" {
		rt.examples = retrieval.NewExampleDir(cfg.ExamplesDir)
		if err := rt.examples.Start(ctx); err != nil {
			logger.Warn("example files disabled", zap.String("dir", cfg.ExamplesDir), zap.Error(err))
			rt.examples = nil
		} else {
			opts = append(opts, assistant.WithExamples(rt.examples))
		}
	}

	if withModels {
		orch := perception.NewFromConfig(ctx, cfg)
		if len(orch.Names()) > 0 {
			opts = append(opts, assistant.WithPlanner(orch))
		} else {
			logger.Info("no model providers configured; using the heuristic parser only")
		}
	}

	rt.service = assistant.NewService(st, opts...)
	return rt, nil
}

func requireIdentity() error {
	if campaignID == "" || userID == "" {
		return fmt.Errorf("--campaign and --user are required (run `sheetsmith seed` for a demo campaign)")
	}
	return nil
}
