package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/agentic-research/outline/internal/config"
	"github.com/agentic-research/outline/internal/mcpserver"
	"github.com/agentic-research/outline/internal/store"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

var (
	configPath string
	shelfDir   string
	backend    string
	logLevel   string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to an .hcl or .toml config file")
	pf.StringVar(&shelfDir, "shelf", "", "Shelf directory (default ~/.outline/shelf)")
	pf.StringVar(&backend, "backend", "", "Storage backend: json or sqlite")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

var rootCmd = &cobra.Command{
	Use:          "outline [shelf-dir]",
	Short:        "Outline: hierarchical checklists served over MCP",
	Long:         "Outline keeps a shelf of books, each a tree of sections and content items, and serves it to agents as MCP tools over stdio.",
	Version:      version,
	SilenceUsage: true,
	Args:         cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.ErrOrStderr(), args)
		if err != nil {
			return err
		}
		defer env.close()

		srv := mcpserver.New(env.shelf, mcpserver.Options{
			Version:          version,
			DefaultMaxDepth:  env.cfg.DefaultMaxDepth,
			OmitPlaceholders: !env.cfg.IncludePlaceholders,
			ExportDir:        env.cfg.ExportDir,
		}, env.logger)
		return srv.ServeStdio()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig layers the config file, then flags, then the positional
// shelf directory.
func resolveConfig(args []string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if shelfDir != "" {
		cfg.ShelfDir = shelfDir
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if len(args) > 0 {
		cfg.ShelfDir = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

type env struct {
	cfg    config.Config
	logger *log.Logger
	shelf  store.Shelf
}

// openEnv resolves the configuration and opens the shelf. Logs go to w.
func openEnv(w io.Writer, args []string) (*env, error) {
	cfg, err := resolveConfig(args)
	if err != nil {
		return nil, err
	}
	logger := newLogger(w, cfg.Level())

	shelf, err := store.Open(cfg.Backend, cfg.ShelfDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("shelf opened", "dir", cfg.ShelfDir, "backend", cfg.Backend)
	return &env{cfg: cfg, logger: logger, shelf: shelf}, nil
}

func (e *env) close() {
	if err := e.shelf.Close(); err != nil {
		e.logger.Warn("close shelf", "err", err)
	}
}

// newLogger writes timestamped logs to w. stdout is reserved for the MCP
// stream, so callers pass stderr.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "outline",
	})
}
