package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	mperrors "github.com/mermaidpix/mermaidpix/pkg/errors"
)

// EngineMermaid is the name and artifact prefix of the mermaid engine.
const EngineMermaid = "mermaid"

// killGracePeriod bounds how long Run may linger after the timeout kills the
// renderer. The renderer forks a headless browser that inherits the stderr
// pipe; the kill reaches only the direct child, so without a wait delay Run
// would block on pipe EOF until the whole orphaned process tree exited.
const killGracePeriod = 3 * time.Second

// Mermaid renders mermaid diagram sources by invoking the external
// mermaid-cli binary. The diagram source is treated as an opaque string; no
// syntax validation happens on this side of the process boundary.
type Mermaid struct {
	opts Options
}

// NewMermaid creates a mermaid engine with the given options.
func NewMermaid(opts Options) *Mermaid {
	opts.SetDefaults()
	return &Mermaid{opts: opts}
}

// Name returns the engine identifier.
func (m *Mermaid) Name() string { return EngineMermaid }

// Label returns the display name for generated image references.
func (m *Mermaid) Label() string { return "Mermaid" }

// Render converts one mermaid diagram to a PNG at its conventional cache
// path.
//
// On a cache hit the external process is never spawned. On a miss the source
// is persisted to a uniquely named temp file, mmdc is invoked with a fixed
// argument set, and a hard timeout is enforced: expiry kills the child
// process and reports RENDER_TIMEOUT. The temp file is removed on every exit
// path.
func (m *Mermaid) Render(ctx context.Context, source string, store *cache.Artifacts, key cache.Key) (cache.Artifact, error) {
	if !m.opts.Force {
		if path, ok := store.Lookup(EngineMermaid, key); ok {
			return cache.Artifact{Key: key, Path: path, Dir: store.Dir()}, nil
		}
	}

	target := store.Path(EngineMermaid, key)

	// The uuid suffix keeps temp inputs distinct even when two invocations
	// render the same diagram concurrently.
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("mermaidpix_%s_%s.mmd", key, uuid.NewString()))
	if err := os.WriteFile(tmp, []byte(source), 0644); err != nil {
		return cache.Artifact{}, mperrors.Wrap(mperrors.ErrCodeFilesystem, err, "write temp diagram file")
	}
	defer os.Remove(tmp)

	ctx, cancel := context.WithTimeout(ctx, m.opts.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, m.opts.Command,
		"-i", tmp,
		"-o", target,
		"-b", "transparent",
		"-w", strconv.Itoa(m.opts.Width),
		"-H", strconv.Itoa(m.opts.Height),
		"-s", strconv.Itoa(m.opts.Scale),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGracePeriod

	err := cmd.Run()
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		return cache.Artifact{}, mperrors.New(mperrors.ErrCodeRenderTimeout,
			"renderer timed out after %s", m.opts.Timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return cache.Artifact{}, mperrors.New(mperrors.ErrCodeRenderFailed,
				"renderer exited with status %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return cache.Artifact{}, mperrors.Wrap(mperrors.ErrCodeRenderCrashed, err, "invoke renderer %q", m.opts.Command)
	}

	// Zero exit but no output file still counts as a failed render.
	if _, statErr := os.Stat(target); statErr != nil {
		return cache.Artifact{}, mperrors.New(mperrors.ErrCodeRenderFailed,
			"renderer exited cleanly but produced no output at %s", target)
	}

	return cache.Artifact{Key: key, Path: target, Dir: store.Dir()}, nil
}
