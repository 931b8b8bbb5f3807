// Package config loads the server configuration from an optional HCL or
// TOML file layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/agentic-research/outline/internal/outline"
	"github.com/agentic-research/outline/internal/store"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

type Config struct {
	// ShelfDir holds the books.
	ShelfDir string `hcl:"shelf_dir,optional" toml:"shelf_dir"`
	// Backend is "json" (one file per book) or "sqlite".
	Backend string `hcl:"backend,optional" toml:"backend"`
	// DefaultMaxDepth applies when init is called without max_depth.
	DefaultMaxDepth int `hcl:"default_max_depth,optional" toml:"default_max_depth"`
	// IncludePlaceholders is the checklist default for placeholder lines.
	IncludePlaceholders bool `hcl:"include_placeholders,optional" toml:"include_placeholders"`
	// ExportDir is where checklist writes when no output_dir is given.
	ExportDir string `hcl:"export_dir,optional" toml:"export_dir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional" toml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ShelfDir:            defaultShelfDir(),
		Backend:             store.BackendJSON,
		DefaultMaxDepth:     4,
		IncludePlaceholders: true,
		ExportDir:           ".",
		LogLevel:            "info",
	}
}

func defaultShelfDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".outline", "shelf")
	}
	return filepath.Join(home, ".outline", "shelf")
}

// Load reads path over the defaults. An empty path yields the defaults.
// The format follows the extension: .hcl or .toml.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
		}
	default:
		return Config{}, fmt.Errorf("load config %s: unsupported format (use .hcl or .toml)", path)
	}

	cfg.ShelfDir = expandHome(cfg.ShelfDir)
	cfg.ExportDir = expandHome(cfg.ExportDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.ShelfDir == "" {
		return fmt.Errorf("shelf_dir must not be empty")
	}
	switch c.Backend {
	case store.BackendJSON, store.BackendSQLite:
	default:
		return fmt.Errorf("backend %q: use %s or %s", c.Backend, store.BackendJSON, store.BackendSQLite)
	}
	if c.DefaultMaxDepth < 1 || c.DefaultMaxDepth > outline.MaxDepthLimit {
		return fmt.Errorf("default_max_depth %d: must be 1..%d", c.DefaultMaxDepth, outline.MaxDepthLimit)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func expandHome(p string) string {
	rest, ok := strings.CutPrefix(p, "~/")
	if !ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, rest)
}
