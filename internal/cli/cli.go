// Package cli implements the schemconv command-line interface.
//
// Commands convert schematics between the Litematica (.litematic) and
// Sponge (.schem) formats, inspect them, and serve the engine over HTTP.
// Settings come from the TOML file loaded by internal/config; flags
// override them per run.
//
// # Commands
//
//   - convert: Convert a schematic to the other format
//   - info: Summarize a schematic with block counts
//   - debug: Dump the full structure as text, JSON or YAML
//   - view: Browse a region layer by layer in the terminal
//   - serve: Run the HTTP API
//   - cache: Manage the conversion cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through the command context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemconv/internal/config"
	"github.com/matzehuels/schemconv/pkg/buildinfo"
	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/httputil"
	"github.com/matzehuels/schemconv/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "schemconv"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a CLI logging to w at level. The configuration starts at
// defaults and is replaced by the file when a command runs.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Convert Minecraft schematics between Litematica and Sponge formats",
		Long: `schemconv converts Minecraft building schematics between the Litematica
(.litematic) and Sponge (.schem) formats, inspects them, and serves the
conversion engine over HTTP.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/schemconv/config.toml)")

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.debugCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the command tree and prints a failure the way users
// expect: one line, no usage dump.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && ctx.Err() == nil {
		printError("%s", userMessage(err))
	}
	return err
}

// setup loads the config file and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A cache that cannot be
// opened is logged and skipped.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	r, err := c.Config.NewRunner(ctx, noCache, c.Logger)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "err", err)
		return pipeline.NewRunner(nil, nil, c.Logger)
	}
	return r
}

// baseOptions returns pipeline options with the configured defaults.
func (c *CLI) baseOptions() pipeline.Options {
	opts := c.Config.PipelineOptions()
	opts.Logger = c.Logger
	return opts
}

// =============================================================================
// Input Helpers
// =============================================================================

// readInput reads a schematic file, stdin for "-", or an http(s) URL.
func readInput(ctx context.Context, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	if httputil.IsURL(path) {
		loggerFromContext(ctx).Debug("downloading input", "url", path)
		return httputil.NewFetcher().Fetch(ctx, path)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New(errs.ErrCodeFileNotFound, "no such file: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// inputFormat describes the format a run loaded, for display.
func inputFormat(f formats.Format) string {
	if f == formats.Unknown {
		return "cached"
	}
	return f.String()
}
