// Package pipeline provides the document conversion pipeline.
//
// A Runner reads the input document, ensures the image directory exists,
// rewrites every diagram block through the render cache, and writes the
// output document. Per-diagram failures are absorbed by the rewrite stage;
// only document-level I/O failures abort the run.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:  "doc.md",
//	    Output: "out/doc.md",
//	})
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	"github.com/mermaidpix/mermaidpix/pkg/errors"
	"github.com/mermaidpix/mermaidpix/pkg/render"
	"github.com/mermaidpix/mermaidpix/pkg/rewrite"
)

// DefaultImageDir is the image directory used when none is configured,
// resolved relative to the output document's directory.
const DefaultImageDir = "images"

// Options configures a pipeline run. Constructed once at startup and not
// mutated afterwards.
type Options struct {
	// Input is the path of the document to read.
	Input string

	// Output is the path the rewritten document is written to. Image links
	// in the output are always relative to this file's directory.
	Output string

	// ImageDir is the directory generated images are placed in. A relative
	// path is resolved against the output document's directory so the
	// rewritten links stay portable.
	ImageDir string

	// Render configures the diagram engines.
	Render render.Options

	// Jobs bounds concurrent renders; values below 1 mean sequential.
	Jobs int

	// Logger receives progress and warning output. Defaults to log.Default().
	Logger *log.Logger
}

// SetDefaults fills unset fields with defaults.
func (o *Options) SetDefaults() {
	if o.ImageDir == "" {
		o.ImageDir = DefaultImageDir
	}
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.Render.SetDefaults()
}

// Validate checks that the options describe a runnable conversion.
func (o *Options) Validate() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	if o.Output == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output file is required")
	}
	return nil
}

// Result reports what a pipeline run did.
type Result struct {
	rewrite.Result

	ImageDir string        // resolved image directory
	Duration time.Duration // wall-clock time for the whole run
}

// Runner executes document conversions. It is stateless apart from its
// logger and engine set; one Runner can serve many Execute calls.
type Runner struct {
	Logger *log.Logger

	// Engines overrides the default engine set when non-nil. Used by tests
	// to substitute stub engines for the real renderers.
	Engines []render.Engine
}

// NewRunner creates a Runner. If logger is nil, log.Default() is used.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the complete read → rewrite → write pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.SetDefaults()

	start := time.Now()

	data, err := os.ReadFile(opts.Input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeFileNotFound, "input file not found: %s", opts.Input)
		}
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "read input file %s", opts.Input)
	}

	outDir := filepath.Dir(opts.Output)
	imageDir := opts.ImageDir
	if !filepath.IsAbs(imageDir) {
		imageDir = filepath.Join(outDir, imageDir)
	}

	store := cache.New(imageDir)
	if err := store.Ensure(); err != nil {
		return nil, err
	}

	engines := r.Engines
	if engines == nil {
		engines = []render.Engine{
			render.NewMermaid(opts.Render),
			render.NewGraphviz(opts.Render),
		}
	}

	rw := rewrite.New(store, opts.Logger, engines...)
	res, err := rw.Rewrite(ctx, string(data), rewrite.Options{
		RelDir: outDir,
		Jobs:   opts.Jobs,
	})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(opts.Output, []byte(res.Text), 0644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilesystem, err, "write output file %s", opts.Output)
	}

	result := &Result{
		Result:   res,
		ImageDir: imageDir,
		Duration: time.Since(start),
	}

	opts.Logger.Info("converted document",
		"input", opts.Input,
		"output", opts.Output,
		"blocks", result.Blocks,
		"rendered", result.Succeeded,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond))

	return result, nil
}
