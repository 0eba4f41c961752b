// Package cli implements the retail-copilot command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/meridian-labs/retail-copilot/internal/adapters/driven/config/file"
	"github.com/meridian-labs/retail-copilot/internal/adapters/driven/docsource/dir"
	ollamallm "github.com/meridian-labs/retail-copilot/internal/adapters/driven/llm/ollama"
	openaillm "github.com/meridian-labs/retail-copilot/internal/adapters/driven/llm/openai"
	"github.com/meridian-labs/retail-copilot/internal/adapters/driven/model"
	queryexec "github.com/meridian-labs/retail-copilot/internal/adapters/driven/queryexec/sqlite"
	"github.com/meridian-labs/retail-copilot/internal/adapters/driven/search/tfidf"
	"github.com/meridian-labs/retail-copilot/internal/core/domain"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driven"
	"github.com/meridian-labs/retail-copilot/internal/core/ports/driving"
	"github.com/meridian-labs/retail-copilot/internal/core/services"
	"github.com/meridian-labs/retail-copilot/internal/logger"
)

var version = "dev"

// Global flags.
var (
	verbose    bool
	configPath string

	flagDocs     string
	flagDB       string
	flagProvider string
	flagLLMURL   string
	flagLLMModel string
)

// Services consumed by the commands. Wired lazily on first use so that
// commands which only touch the corpus never open the database or the
// model backend. Tests inject stubs before executing a command.
var (
	copilotService driving.CopilotService
	searchIndex    *tfidf.Index
)

var rootCmd = &cobra.Command{
	Use:   "retail-copilot",
	Short: "Answer natural-language questions about a retail dataset",
	Long: `retail-copilot answers natural-language questions about a retail
dataset by combining lexical retrieval over a policy/KPI document corpus
with SQL over a read-only SQLite database. Questions are routed to the
evidence sources they need, answers are validated against their declared
format, and every stage transition is recorded in the output trace.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.retail-copilot/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDocs, "docs", "", "document corpus directory")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider: ollama or openai")
	rootCmd.PersistentFlags().StringVar(&flagLLMURL, "llm-url", "", "LLM endpoint base URL")
	rootCmd.PersistentFlags().StringVar(&flagLLMModel, "llm-model", "", "LLM model name")
}

// Execute runs the root command.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

// loadConfig loads the config file and layers the global flags on top.
func loadConfig() (configfile.Config, error) {
	path := configPath
	if path == "" {
		defaultPath, err := configfile.DefaultPath()
		if err == nil {
			path = defaultPath
		}
	}

	cfg, err := configfile.Load(path)
	if err != nil {
		return cfg, err
	}

	if flagDocs != "" {
		cfg.Corpus.DocsDir = flagDocs
	}
	if flagDB != "" {
		cfg.Database.Path = flagDB
	}
	if flagProvider != "" {
		cfg.LLM.Provider = flagProvider
	}
	if flagLLMURL != "" {
		cfg.LLM.BaseURL = flagLLMURL
	}
	if flagLLMModel != "" {
		cfg.LLM.Model = flagLLMModel
	}

	return cfg, nil
}

// ensureIndex builds the retrieval index from the configured corpus.
func ensureIndex(ctx context.Context, cfg configfile.Config) error {
	if searchIndex != nil {
		return nil
	}

	docs, err := dir.NewSource(cfg.Corpus.DocsDir).Load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	idx, err := tfidf.Build(docs)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	stats := idx.Stats()
	logger.Info("Indexed %d documents into %d chunks (%d terms)",
		stats.Documents, stats.Chunks, stats.Vocabulary)

	searchIndex = idx
	return nil
}

// ensureCopilot wires the full workflow. The returned cleanup closes
// the database and model connections and is a no-op when a service was
// injected.
func ensureCopilot(ctx context.Context) (func(), error) {
	if copilotService != nil {
		return func() {}, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if err := ensureIndex(ctx, cfg); err != nil {
		return nil, err
	}

	llm, err := newLLMService(cfg.LLM)
	if err != nil {
		return nil, err
	}
	if err := llm.Ping(ctx); err != nil {
		llm.Close()
		return nil, fmt.Errorf("%w at %s: %v", domain.ErrLLMUnavailable, cfg.LLM.BaseURL, err)
	}

	executor, err := queryexec.NewExecutor(cfg.Database.Path)
	if err != nil {
		llm.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	calls := model.NewCalls(llm)
	orchestrator := services.NewOrchestrator(
		services.NewRouter(calls),
		searchIndex,
		services.NewPlanner(calls),
		services.NewQueryStage(calls, executor),
		services.NewSynthesizer(calls),
		services.WithTopK(cfg.Corpus.TopK),
	)
	copilotService = services.NewCopilot(orchestrator,
		services.WithConcurrency(cfg.Batch.Concurrency))

	cleanup := func() {
		if err := executor.Close(); err != nil {
			logger.Warn("Closing database: %v", err)
		}
		if err := llm.Close(); err != nil {
			logger.Warn("Closing LLM connection: %v", err)
		}
		copilotService = nil
	}
	return cleanup, nil
}

// newLLMService builds the configured model backend.
func newLLMService(cfg configfile.LLMConfig) (driven.LLMService, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		}), nil
	case "openai":
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want ollama or openai)", cfg.Provider)
	}
}
