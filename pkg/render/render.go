// Package render turns diagram source text into PNG artifacts.
//
// Rendering is pluggable per fence language through the Engine interface.
// Two engines ship with the tool:
//
//   - Mermaid: invokes the external mermaid-cli ("mmdc") binary with a hard
//     wall-clock timeout. This is the reference path: the renderer is an
//     opaque child process that reads a temp file and writes the target PNG.
//   - Graphviz: renders DOT sources in-process via goccy/go-graphviz.
//
// Both engines share the content-addressed cache convention: before doing
// any work they consult cache.Artifacts, and a hit returns immediately
// without rendering. Repeated runs over an unchanged document therefore do
// zero rendering work.
//
// A render failure is never fatal: engines return coded errors
// (RENDER_TIMEOUT, RENDER_FAILED, RENDER_CRASHED) and the caller decides
// fallback behavior.
package render

import (
	"context"
	"time"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
)

// Render geometry and timeout defaults. The large fixed raster resolution
// and oversampling scale produce print-quality output regardless of how the
// embedding document scales the image down.
const (
	DefaultCommand = "mmdc"
	DefaultWidth   = 3840
	DefaultHeight  = 2160
	DefaultScale   = 4
	DefaultTimeout = 60 * time.Second
)

// Options configures an engine. The zero value is completed by
// SetDefaults.
type Options struct {
	// Command is the external renderer binary (mermaid engine only).
	Command string

	// Width and Height are the raster dimensions in pixels.
	Width  int
	Height int

	// Scale is the oversampling factor passed to the renderer.
	Scale int

	// Timeout is the hard wall-clock budget for a single render. On expiry
	// the child process is killed and the render reports RENDER_TIMEOUT.
	Timeout time.Duration

	// Force skips cache lookups so every block is re-rendered.
	Force bool
}

// SetDefaults fills unset fields with the package defaults.
func (o *Options) SetDefaults() {
	if o.Command == "" {
		o.Command = DefaultCommand
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
}

// Engine renders one diagram source into a PNG artifact.
//
// Render either returns the artifact at its conventional cache path or a
// coded error describing why the diagram could not be rendered. The image
// directory must already exist (cache.Artifacts.Ensure is the caller's
// responsibility).
type Engine interface {
	// Name is the engine identifier, used both as the fence language that
	// selects the engine and as the artifact filename prefix.
	Name() string

	// Label is the display name used in generated image references,
	// e.g. "Mermaid" yields "![Mermaid Diagram](...)".
	Label() string

	// Render produces the artifact for source under the given key.
	Render(ctx context.Context, source string, store *cache.Artifacts, key cache.Key) (cache.Artifact, error)
}
