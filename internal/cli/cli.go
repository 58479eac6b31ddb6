// Package cli implements the mermaidpix command-line interface.
//
// The root command converts a markdown document: it scans for fenced
// diagram blocks, renders each into a PNG through the content-addressed
// artifact cache, and writes the document back with relative image links
// spliced over the diagram spans. Subcommands manage generated artifacts
// and shell completions.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// built once at startup and passed through context.Context.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mermaidpix/mermaidpix/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "mermaidpix"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance writing logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself performs the conversion:
//
//	mermaidpix <input-file> <output-file> [--image-dir DIR] [-v]
func (c *CLI) RootCommand() *cobra.Command {
	root := c.convertCommand()
	root.Version = buildinfo.Version
	root.SetVersionTemplate(buildinfo.Template())
	root.SilenceUsage = true
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}
