package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mermaidpix/mermaidpix/pkg/pipeline"
	"github.com/mermaidpix/mermaidpix/pkg/render"
)

// convertOpts holds the command-line flags for the conversion run.
type convertOpts struct {
	imageDir string // directory for generated images, relative to the output document
	renderer string // external renderer binary
	jobs     int    // max concurrent renders
	force    bool   // re-render even when a cached artifact exists
	config   string // explicit config file path
}

// convertCommand creates the root conversion command.
//
// Defaults resolve in three layers: built-in constants, then the TOML config
// file, then flags. The resolved options are built once and never mutated
// during the run.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "mermaidpix <input-file> <output-file>",
		Short: "Convert fenced diagrams in markdown to high-res PNG images",
		Long: `Mermaidpix scans a markdown document for fenced diagram blocks
(` + "```mermaid and ```dot" + `), renders each into a PNG image, and rewrites
the document to reference the generated image instead of the raw diagram
source.

Rendered images are content-addressed: the file name is derived from a hash
of the diagram source, so unchanged diagrams are never rendered twice.
Image links in the output are relative to the output document's directory,
keeping the rewritten document portable.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.imageDir, "image-dir", "", "directory to store generated images (default \"images\", relative to the output file)")
	cmd.Flags().StringVar(&opts.renderer, "renderer", "", "external mermaid renderer binary (default \"mmdc\")")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "max concurrent renders (default 1)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "re-render diagrams even when cached images exist")
	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default $XDG_CONFIG_HOME/mermaidpix/config.toml)")

	return cmd
}

// runConvert resolves configuration and executes the pipeline.
func (c *CLI) runConvert(ctx context.Context, input, output string, opts convertOpts) error {
	logger := loggerFromContext(ctx)

	cfgPath := opts.config
	if cfgPath == "" {
		if p, err := configPath(); err == nil {
			cfgPath = p
		}
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	popts := pipeline.Options{
		Input:    input,
		Output:   output,
		ImageDir: firstNonEmpty(opts.imageDir, cfg.ImageDir),
		Jobs:     firstPositive(opts.jobs, cfg.Jobs),
		Logger:   logger,
		Render: render.Options{
			Command: firstNonEmpty(opts.renderer, cfg.Renderer),
			Width:   cfg.Width,
			Height:  cfg.Height,
			Scale:   cfg.Scale,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
			Force:   opts.force,
		},
	}

	logger.Info("processing input file", "input", input)
	p := newProgress(logger)

	var spinner *Spinner
	if logger.GetLevel() > log.DebugLevel && stderrInteractive() {
		spinner = newSpinnerWithContext(ctx, "Rendering diagrams...")
		spinner.Start()
	}

	result, err := pipeline.NewRunner(logger).Execute(ctx, popts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	p.done(fmt.Sprintf("Processing complete, output written to %s", output))

	printSuccess("Converted %s", input)
	printDetail("output:    %s", output)
	printDetail("diagrams:  %d", result.Blocks)
	printDetail("rendered:  %d", result.Succeeded)
	if result.Failed > 0 {
		printWarning("%d diagram(s) failed to render and were left unchanged", result.Failed)
	}
	return nil
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// firstPositive returns the first positive int.
func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
