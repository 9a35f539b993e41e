// Package config holds the file assistant configuration. Configuration is
// loaded from a YAML file (default ~/.filechat.yaml) with defaults that match
// a stock desktop: the watched roots are Desktop, Documents and Downloads
// under the user's home directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all filechat configuration.
type Config struct {
	// Index settings
	Index IndexConfig `yaml:"index"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Search settings
	Search SearchConfig `yaml:"search"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// IndexConfig configures the filesystem index.
type IndexConfig struct {
	// Roots are the watched directories.
	Roots []string `yaml:"roots"`

	// Extensions is the file-type allow-list, without leading dots.
	Extensions []string `yaml:"extensions"`

	// SkipDirs are directory names excluded from every walk.
	SkipDirs []string `yaml:"skip_dirs"`

	// FolderDepth bounds the folder walk used for collect-target lookup.
	FolderDepth int `yaml:"folder_depth"`
}

// LLMConfig configures the language service client.
type LLMConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// SearchConfig configures the search pipeline.
type SearchConfig struct {
	// MaxListed caps how many index entries are offered to the model.
	MaxListed int `yaml:"max_listed"`

	// MaxResults caps the result set in both AI and local modes.
	MaxResults int `yaml:"max_results"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Index: IndexConfig{
			Roots: []string{
				filepath.Join(home, "Desktop"),
				filepath.Join(home, "Documents"),
				filepath.Join(home, "Downloads"),
			},
			Extensions: []string{
				"pdf", "docx", "doc", "xlsx", "xls",
				"pptx", "ppt", "txt", "md", "csv",
			},
			SkipDirs: []string{
				"node_modules", "__pycache__", ".git",
				"Library", "Applications", ".Trash",
			},
			FolderDepth: 3,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.5-flash",
			MaxAttempts: 3,
		},
		Search: SearchConfig{
			MaxListed:  800,
			MaxResults: 100,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config from path, layering it over the defaults. A missing file
// is not an error: the defaults are returned as-is. GEMINI_API_KEY in the
// environment overrides the configured key either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Keep defaults.
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults backfills zero values a hand-written YAML file may omit.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if len(c.Index.Roots) == 0 {
		c.Index.Roots = d.Index.Roots
	}
	if len(c.Index.Extensions) == 0 {
		c.Index.Extensions = d.Index.Extensions
	}
	if len(c.Index.SkipDirs) == 0 {
		c.Index.SkipDirs = d.Index.SkipDirs
	}
	if c.Index.FolderDepth <= 0 {
		c.Index.FolderDepth = d.Index.FolderDepth
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.LLM.Model
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = d.LLM.MaxAttempts
	}
	if c.Search.MaxListed <= 0 {
		c.Search.MaxListed = d.Search.MaxListed
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = d.Search.MaxResults
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filechat.yaml"
	}
	return filepath.Join(home, ".filechat.yaml")
}
