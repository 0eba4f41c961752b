package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the typed configuration for the retail-copilot CLI.
// Every field has a working default so a missing config file is not an
// error; command-line flags override whatever is loaded here.
type Config struct {
	// Corpus configures the document corpus.
	Corpus CorpusConfig `toml:"corpus"`

	// Database configures the structured store.
	Database DatabaseConfig `toml:"database"`

	// LLM configures the model backend.
	LLM LLMConfig `toml:"llm"`

	// Batch configures batch processing.
	Batch BatchConfig `toml:"batch"`
}

// CorpusConfig configures document loading and retrieval.
type CorpusConfig struct {
	// DocsDir is the directory holding the .md/.txt corpus.
	DocsDir string `toml:"docs_dir"`

	// TopK is the retrieval depth per question.
	TopK int `toml:"top_k"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Path is the SQLite database file, opened read-only.
	Path string `toml:"path"`
}

// LLMConfig configures the model backend.
type LLMConfig struct {
	// Provider selects the backend: ollama or openai.
	Provider string `toml:"provider"`

	// BaseURL is the backend endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the model name passed on every call.
	Model string `toml:"model"`

	// TimeoutSeconds bounds each model call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	// Concurrency is the worker count for batch runs.
	Concurrency int `toml:"concurrency"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Corpus: CorpusConfig{
			DocsDir: "docs",
			TopK:    4,
		},
		Database: DatabaseConfig{
			Path: "retail.db",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			BaseURL:        "http://localhost:11434",
			Model:          "phi3.5",
			TimeoutSeconds: 120,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// DefaultPath returns ~/.retail-copilot/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".retail-copilot", "config.toml"), nil
}

// Load reads the config at path, layering it over the defaults.
// A missing file returns the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg.normalized(), nil
}

// Save writes the config to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Restricted permissions since the file may carry endpoint details.
	return os.WriteFile(path, data, 0600)
}

// normalized backfills zero values with defaults so a partial file
// still yields a usable config.
func (c Config) normalized() Config {
	def := Default()

	if c.Corpus.DocsDir == "" {
		c.Corpus.DocsDir = def.Corpus.DocsDir
	}
	if c.Corpus.TopK <= 0 {
		c.Corpus.TopK = def.Corpus.TopK
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = def.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = def.LLM.Model
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = def.LLM.TimeoutSeconds
	}
	if c.Batch.Concurrency <= 0 {
		c.Batch.Concurrency = def.Batch.Concurrency
	}
	return c
}
