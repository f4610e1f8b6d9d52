// Package config loads and validates mdsearch configuration from YAML
// files. Zero configuration works: every field has a sensible default and
// an absent file is not an error.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mdlens/mdsearch/internal/errors"
)

// Config is the top-level configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Watcher WatcherConfig `yaml:"watcher"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig controls the search engine: memory ceiling, tokenization,
// scoring, and query debouncing.
type EngineConfig struct {
	// CacheBudgetBytes is the hard ceiling for document text held in
	// memory. Must be positive.
	CacheBudgetBytes int64 `yaml:"cacheBudgetBytes"`

	// MaxCachedDocuments bounds the number of cache entries regardless
	// of size. Must be positive.
	MaxCachedDocuments int `yaml:"maxCachedDocuments"`

	// MinTermLength drops shorter terms at tokenization time to bound
	// index size.
	MinTermLength int `yaml:"minTermLength"`

	// SnippetWidth is the maximum context snippet length in runes.
	SnippetWidth int `yaml:"snippetWidth"`

	// HeadingBoost multiplies the score of matches that fall on a
	// heading line. Must be >= 1.
	HeadingBoost float64 `yaml:"headingBoost"`

	// MaxResults caps the result list per query. Zero means unlimited.
	MaxResults int `yaml:"maxResults"`

	// DebounceDelay is how long the coordinator waits for typing to
	// pause before executing a query.
	DebounceDelay time.Duration `yaml:"debounceDelay"`
}

// WatcherConfig controls the filesystem watcher.
type WatcherConfig struct {
	// DebounceWindow coalesces bursts of file events per path.
	DebounceWindow time.Duration `yaml:"debounceWindow"`

	// Extensions lists the file extensions treated as documents.
	Extensions []string `yaml:"extensions"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	FilePath  string `yaml:"filePath"`
	MaxSizeMB int    `yaml:"maxSizeMB"`
	MaxFiles  int    `yaml:"maxFiles"`
}

// Default returns the zero-config defaults: a 32 MB cache, 200 ms query
// debounce, and markdown extensions.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			CacheBudgetBytes:   32 * 1024 * 1024,
			MaxCachedDocuments: 4096,
			MinTermLength:      2,
			SnippetWidth:       80,
			HeadingBoost:       2.0,
			MaxResults:         100,
			DebounceDelay:      200 * time.Millisecond,
		},
		Watcher: WatcherConfig{
			DebounceWindow: 300 * time.Millisecond,
			Extensions:     []string{".md", ".markdown", ".mdx"},
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field the engine relies on. This is the only
// place in mdsearch that fails fast: past construction, the engine
// degrades instead of erroring.
func (c *Config) Validate() error {
	if c.Engine.CacheBudgetBytes <= 0 {
		return errors.InvalidInput("engine.cacheBudgetBytes must be positive, got %d", c.Engine.CacheBudgetBytes)
	}
	if c.Engine.MaxCachedDocuments <= 0 {
		return errors.InvalidInput("engine.maxCachedDocuments must be positive, got %d", c.Engine.MaxCachedDocuments)
	}
	if c.Engine.MinTermLength < 1 {
		return errors.InvalidInput("engine.minTermLength must be at least 1, got %d", c.Engine.MinTermLength)
	}
	if c.Engine.SnippetWidth < 8 {
		return errors.InvalidInput("engine.snippetWidth must be at least 8, got %d", c.Engine.SnippetWidth)
	}
	if c.Engine.HeadingBoost < 1 {
		return errors.InvalidInput("engine.headingBoost must be >= 1, got %g", c.Engine.HeadingBoost)
	}
	if c.Engine.MaxResults < 0 {
		return errors.InvalidInput("engine.maxResults must not be negative, got %d", c.Engine.MaxResults)
	}
	if c.Engine.DebounceDelay < 0 {
		return errors.InvalidInput("engine.debounceDelay must not be negative, got %s", c.Engine.DebounceDelay)
	}
	if c.Watcher.DebounceWindow <= 0 {
		return errors.InvalidInput("watcher.debounceWindow must be positive, got %s", c.Watcher.DebounceWindow)
	}
	return nil
}
