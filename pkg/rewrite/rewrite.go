// Package rewrite scans a document for fenced diagram blocks, renders each
// through its engine, and splices relative image references over the block
// spans.
//
// Per-block render failures degrade gracefully: the original block text is
// left untouched and a warning is logged with the block number and reason.
// All non-diagram content is preserved byte for byte.
package rewrite

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	"github.com/mermaidpix/mermaidpix/pkg/errors"
	"github.com/mermaidpix/mermaidpix/pkg/observability"
	"github.com/mermaidpix/mermaidpix/pkg/render"
)

// Options configures a single rewrite pass.
type Options struct {
	// RelDir is the directory image links are expressed relative to. This
	// must be the directory containing the output document, so the rewritten
	// document stays portable when moved or viewed away from the working
	// directory.
	RelDir string

	// Jobs is the maximum number of concurrent renders. Values below 1 mean
	// sequential processing, which is the baseline behavior.
	Jobs int
}

// Result is the outcome of a full document rewrite.
type Result struct {
	Text      string // rewritten document
	Blocks    int    // diagram blocks found
	Succeeded int    // blocks replaced by image references
	Failed    int    // blocks left unchanged after a render failure
}

// Rewriter orchestrates render-or-reuse per diagram block.
type Rewriter struct {
	store   *cache.Artifacts
	engines map[string]render.Engine
	names   map[string]bool
	logger  *log.Logger
}

// New creates a Rewriter over the given artifact cache and engines. If
// logger is nil, log.Default() is used.
func New(store *cache.Artifacts, logger *log.Logger, engines ...render.Engine) *Rewriter {
	if logger == nil {
		logger = log.Default()
	}
	byName := make(map[string]render.Engine, len(engines))
	names := make(map[string]bool, len(engines))
	for _, e := range engines {
		byName[e.Name()] = e
		names[e.Name()] = true
	}
	return &Rewriter{
		store:   store,
		engines: byName,
		names:   names,
		logger:  logger,
	}
}

// blockOutcome pairs a rendered block with its replacement text. A nil
// error means replacement holds the image reference; otherwise the original
// span is kept.
type blockOutcome struct {
	replacement string
	err         error
}

// Rewrite scans doc, renders every diagram block, and returns the rewritten
// text together with success/failure counts.
//
// Renders run through a bounded worker group (opts.Jobs wide); each render
// is independent, so two workers hitting the same key at once simply write
// identical bytes to the same conventional path. Splicing always happens
// afterwards in document order. Only non-recoverable errors (document-level
// filesystem problems) abort the rewrite.
func (r *Rewriter) Rewrite(ctx context.Context, doc string, opts Options) (Result, error) {
	start := time.Now()
	blocks := scan(doc, r.names)
	result := Result{Blocks: len(blocks)}

	if len(blocks) == 0 {
		result.Text = doc
		return result, nil
	}

	jobs := opts.Jobs
	if jobs < 1 {
		jobs = 1
	}

	outcomes := make([]blockOutcome, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, b := range blocks {
		g.Go(func() error {
			out, err := r.renderBlock(gctx, b, opts.RelDir)
			if err != nil && !errors.IsRecoverable(err) {
				return err
			}
			outcomes[i] = blockOutcome{replacement: out, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	var buf []byte
	last := 0
	for i, b := range blocks {
		buf = append(buf, doc[last:b.Start]...)
		if outcomes[i].err != nil {
			r.logger.Warn("diagram render failed, keeping original block",
				"block", i+1,
				"engine", b.Engine,
				"reason", errors.UserMessage(outcomes[i].err))
			buf = append(buf, b.Span(doc)...)
			result.Failed++
		} else {
			buf = append(buf, outcomes[i].replacement...)
			result.Succeeded++
		}
		last = b.End
	}
	buf = append(buf, doc[last:]...)

	result.Text = string(buf)
	observability.Rewrite().OnDocumentComplete(result.Blocks, result.Failed, time.Since(start))
	return result, nil
}

// renderBlock renders one block and returns the image reference that
// replaces its span.
func (r *Rewriter) renderBlock(ctx context.Context, b Block, relDir string) (string, error) {
	engine := r.engines[b.Engine]
	key := cache.Digest(b.Source)

	r.logger.Debug("processing diagram block",
		"engine", b.Engine,
		"key", string(key))

	observability.Rewrite().OnBlockStart(b.Engine, string(key))
	start := time.Now()
	artifact, err := engine.Render(ctx, b.Source, r.store, key)
	observability.Rewrite().OnBlockComplete(b.Engine, string(key), time.Since(start), err)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("\n![%s Diagram](%s)\n", engine.Label(), relPath(relDir, artifact.Path)), nil
}

// relPath expresses target relative to dir, falling back to the target as
// given when no relative form exists (e.g. different volumes).
func relPath(dir, target string) string {
	if dir == "" {
		return target
	}
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}
