package render

import (
	"context"
	"os"

	"github.com/goccy/go-graphviz"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	mperrors "github.com/mermaidpix/mermaidpix/pkg/errors"
)

// EngineGraphviz is the name and artifact prefix of the graphviz engine.
const EngineGraphviz = "dot"

// Graphviz renders DOT diagram sources in-process. Unlike the mermaid
// engine there is no child process and no temp file; the same cache
// convention, timeout, and error taxonomy still apply.
type Graphviz struct {
	opts Options
}

// NewGraphviz creates a graphviz engine with the given options.
func NewGraphviz(opts Options) *Graphviz {
	opts.SetDefaults()
	return &Graphviz{opts: opts}
}

// Name returns the engine identifier.
func (g *Graphviz) Name() string { return EngineGraphviz }

// Label returns the display name for generated image references.
func (g *Graphviz) Label() string { return "Graphviz" }

// Render converts one DOT diagram to a PNG at its conventional cache path.
func (g *Graphviz) Render(ctx context.Context, source string, store *cache.Artifacts, key cache.Key) (cache.Artifact, error) {
	if !g.opts.Force {
		if path, ok := store.Lookup(EngineGraphviz, key); ok {
			return cache.Artifact{Key: key, Path: path, Dir: store.Dir()}, nil
		}
	}

	target := store.Path(EngineGraphviz, key)

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return cache.Artifact{}, mperrors.Wrap(mperrors.ErrCodeRenderCrashed, err, "init graphviz")
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(source))
	if err != nil {
		return cache.Artifact{}, mperrors.Wrap(mperrors.ErrCodeRenderFailed, err, "parse DOT source")
	}
	defer graph.Close()

	if err := gv.RenderFilename(ctx, graph, graphviz.PNG, target); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return cache.Artifact{}, mperrors.New(mperrors.ErrCodeRenderTimeout,
				"graphviz timed out after %s", g.opts.Timeout)
		}
		return cache.Artifact{}, mperrors.Wrap(mperrors.ErrCodeRenderFailed, err, "render DOT to PNG")
	}

	if _, statErr := os.Stat(target); statErr != nil {
		return cache.Artifact{}, mperrors.New(mperrors.ErrCodeRenderFailed,
			"graphviz produced no output at %s", target)
	}

	return cache.Artifact{Key: key, Path: target, Dir: store.Dir()}, nil
}
