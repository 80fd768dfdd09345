// Package config loads the runtime configuration for the legal document
// tools: where the corpus lives, which files count as documents, and the
// default result/context limits.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks for a configuration file when no explicit
// path is given. A missing file is not an error; defaults apply.
const DefaultPath = "configs/config.yaml"

// EnvRoot is the environment variable that overrides the corpus root. It
// takes precedence over both the default and any value from the config file.
const EnvRoot = "LEGAL_DOC_ROOT"

// Config holds the process-wide settings for the sandbox and search tools.
// It is loaded once at startup and treated as immutable afterwards.
type Config struct {
	// LegalDocRoot is the base directory containing the corpus.
	LegalDocRoot string `yaml:"legal_doc_root"`
	// Glob is the default pattern for selecting corpus files. Brace
	// alternation like **/*.{txt,md} is supported.
	Glob string `yaml:"glob"`
	// MaxResults caps the number of hits or files returned by default.
	MaxResults int `yaml:"max_results"`
	// ContextBytes is the default symmetric padding for range reads.
	ContextBytes int `yaml:"context_bytes"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		LegalDocRoot: "./data/",
		Glob:         "**/*.{txt,md}",
		MaxResults:   50,
		ContextBytes: 300,
	}
}

// Load reads the configuration from path, falling back to defaults for any
// missing keys. A path of "" means DefaultPath. The file being absent is
// fine; a file that exists but cannot be parsed is an error. After loading,
// the LEGAL_DOC_ROOT environment variable overrides the root, and the root
// is normalized to an absolute path.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file; defaults apply.
	default:
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if envRoot := os.Getenv(EnvRoot); envRoot != "" {
		cfg.LegalDocRoot = envRoot
	}

	abs, err := filepath.Abs(cfg.LegalDocRoot)
	if err != nil {
		return nil, fmt.Errorf("config: resolving root %q: %w", cfg.LegalDocRoot, err)
	}
	cfg.LegalDocRoot = abs

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = Default().MaxResults
	}
	if cfg.ContextBytes < 0 {
		cfg.ContextBytes = Default().ContextBytes
	}
	if cfg.Glob == "" {
		cfg.Glob = Default().Glob
	}

	return cfg, nil
}
