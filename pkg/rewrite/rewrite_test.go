package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mermaidpix/mermaidpix/pkg/cache"
	"github.com/mermaidpix/mermaidpix/pkg/errors"
	"github.com/mermaidpix/mermaidpix/pkg/render"
)

// stubEngine writes a 1-byte artifact at the conventional path, or fails
// with a fixed error. It stands in for the real renderers so no external
// binary is invoked.
type stubEngine struct {
	name    string
	label   string
	fail    error
	renders atomic.Int32
}

func (e *stubEngine) Name() string  { return e.name }
func (e *stubEngine) Label() string { return e.label }

func (e *stubEngine) Render(ctx context.Context, source string, store *cache.Artifacts, key cache.Key) (cache.Artifact, error) {
	if e.fail != nil {
		return cache.Artifact{}, e.fail
	}
	e.renders.Add(1)
	path := store.Path(e.name, key)
	if err := os.WriteFile(path, []byte{1}, 0644); err != nil {
		return cache.Artifact{}, err
	}
	return cache.Artifact{Key: key, Path: path, Dir: store.Dir()}, nil
}

func newTestRewriter(t *testing.T, engines ...*stubEngine) (*Rewriter, string) {
	t.Helper()
	outDir := t.TempDir()
	store := cache.New(filepath.Join(outDir, "images"))
	if err := store.Ensure(); err != nil {
		t.Fatalf("ensure image dir: %v", err)
	}
	logger := log.New(os.Stderr)
	var es []render.Engine
	for _, e := range engines {
		es = append(es, e)
	}
	return New(store, logger, es...), outDir
}

func TestRewriteBytePreservation(t *testing.T) {
	docs := []string{
		"",
		"no diagrams here\n",
		"# Title\n\nsome *markdown* text\n\n```go\ncode\n```\n",
	}
	mermaid := &stubEngine{name: "mermaid", label: "Mermaid"}
	rw, outDir := newTestRewriter(t, mermaid)

	for _, doc := range docs {
		res, err := rw.Rewrite(context.Background(), doc, Options{RelDir: outDir})
		if err != nil {
			t.Fatalf("Rewrite(%q) error: %v", doc, err)
		}
		if res.Text != doc {
			t.Errorf("Rewrite(%q) = %q, document without blocks must be unchanged", doc, res.Text)
		}
		if res.Blocks != 0 || res.Succeeded != 0 || res.Failed != 0 {
			t.Errorf("counts = %+v, want all zero", res)
		}
	}
}

func TestRewriteSpanIntegrity(t *testing.T) {
	mermaid := &stubEngine{name: "mermaid", label: "Mermaid"}
	rw, outDir := newTestRewriter(t, mermaid)

	doc := "A\n```mermaid\ngraph TD; A-->B\n```\nB\n"
	res, err := rw.Rewrite(context.Background(), doc, Options{RelDir: outDir})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}

	key := cache.Digest("graph TD; A-->B")
	want := fmt.Sprintf("A\n\n![Mermaid Diagram](images/mermaid_%s.png)\n\nB\n", key)
	if res.Text != want {
		t.Errorf("Rewrite = %q, want %q", res.Text, want)
	}
	if res.Blocks != 1 || res.Succeeded != 1 || res.Failed != 0 {
		t.Errorf("counts = %+v, want 1 block, 1 success", res)
	}

	// The artifact must exist on disk.
	artifact := filepath.Join(outDir, "images", cache.Filename("mermaid", key))
	if _, err := os.Stat(artifact); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestRewriteGracefulDegradation(t *testing.T) {
	// If every render fails, the document is returned unchanged with one
	// failure per block.
	mermaid := &stubEngine{
		name:  "mermaid",
		label: "Mermaid",
		fail:  errors.New(errors.ErrCodeRenderFailed, "renderer exited with status 1"),
	}
	rw, outDir := newTestRewriter(t, mermaid)

	doc := "```mermaid\na\n```\ntext\n```mermaid\nb\n```\n"
	res, err := rw.Rewrite(context.Background(), doc, Options{RelDir: outDir})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if res.Text != doc {
		t.Errorf("failed blocks must be left unchanged:\ngot  %q\nwant %q", res.Text, doc)
	}
	if res.Blocks != 2 || res.Failed != 2 || res.Succeeded != 0 {
		t.Errorf("counts = %+v, want 2 blocks, 2 failures", res)
	}
}

func TestRewriteMixedOutcomes(t *testing.T) {
	mermaid := &stubEngine{name: "mermaid", label: "Mermaid"}
	dot := &stubEngine{
		name:  "dot",
		label: "Graphviz",
		fail:  errors.New(errors.ErrCodeRenderTimeout, "renderer timed out after 60s"),
	}
	rw, outDir := newTestRewriter(t, mermaid, dot)

	doc := "```mermaid\nok\n```\nmiddle\n```dot\nslow\n```\nend\n"
	res, err := rw.Rewrite(context.Background(), doc, Options{RelDir: outDir})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}

	key := cache.Digest("ok")
	want := fmt.Sprintf("\n![Mermaid Diagram](images/mermaid_%s.png)\n\nmiddle\n```dot\nslow\n```\nend\n", key)
	if res.Text != want {
		t.Errorf("Rewrite = %q, want %q", res.Text, want)
	}
	if res.Succeeded != 1 || res.Failed != 1 {
		t.Errorf("counts = %+v, want 1 success, 1 failure", res)
	}
}

func TestRewriteFatalFilesystemError(t *testing.T) {
	mermaid := &stubEngine{
		name:  "mermaid",
		label: "Mermaid",
		fail:  errors.New(errors.ErrCodeFilesystem, "permission denied"),
	}
	rw, outDir := newTestRewriter(t, mermaid)

	_, err := rw.Rewrite(context.Background(), "```mermaid\nx\n```", Options{RelDir: outDir})
	if err == nil {
		t.Fatal("document-level filesystem errors must abort the rewrite")
	}
	if !errors.Is(err, errors.ErrCodeFilesystem) {
		t.Errorf("error code = %q, want FILESYSTEM_ERROR", errors.GetCode(err))
	}
}

func TestRewriteParallel(t *testing.T) {
	mermaid := &stubEngine{name: "mermaid", label: "Mermaid"}
	rw, outDir := newTestRewriter(t, mermaid)

	var doc string
	for i := 0; i < 8; i++ {
		doc += fmt.Sprintf("```mermaid\ndiagram %d\n```\n", i)
	}

	res, err := rw.Rewrite(context.Background(), doc, Options{RelDir: outDir, Jobs: 4})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if res.Blocks != 8 || res.Succeeded != 8 {
		t.Errorf("counts = %+v, want 8 successes", res)
	}
	if int(mermaid.renders.Load()) != 8 {
		t.Errorf("renders = %d, want 8", mermaid.renders.Load())
	}

	// Replacements must appear in document order regardless of render order.
	pos := 0
	for i := 0; i < 8; i++ {
		ref := fmt.Sprintf("![Mermaid Diagram](images/mermaid_%s.png)", cache.Digest(fmt.Sprintf("diagram %d", i)))
		idx := strings.Index(res.Text[pos:], ref)
		if idx < 0 {
			t.Fatalf("reference %d missing or out of order in %q", i, res.Text)
		}
		pos += idx + len(ref)
	}
}
