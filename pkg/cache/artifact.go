// Package cache implements the content-addressed artifact cache.
//
// The cache is an on-disk naming convention, not an index: a rendered
// diagram lives at <dir>/<engine>_<key>.png, and the existence of a file at
// that path *is* the cache entry. Lookup never inspects file contents; trust
// rests on Digest being deterministic and collisions being vanishingly
// unlikely at practical document sizes.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mermaidpix/mermaidpix/pkg/errors"
	"github.com/mermaidpix/mermaidpix/pkg/observability"
)

// Artifact is a rendered image materialized on disk. Created the first time
// a key is rendered, never mutated, reusable across runs for as long as the
// file exists.
type Artifact struct {
	Key  Key    // content key of the diagram source
	Path string // absolute or caller-relative path of the image file
	Dir  string // directory containing the image file
}

// Artifacts answers presence queries against an image directory using the
// filename convention. The zero value is not usable; construct with New.
type Artifacts struct {
	dir string
}

// New creates an artifact cache over the given directory. The directory is
// not created here; call Ensure before rendering into it.
func New(dir string) *Artifacts {
	return &Artifacts{dir: dir}
}

// Dir returns the directory this cache resolves paths against.
func (a *Artifacts) Dir() string {
	return a.dir
}

// Ensure creates the image directory if it does not exist. This is a
// precondition for any Lookup or render targeting the directory.
func (a *Artifacts) Ensure() error {
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeFilesystem, err, "create image directory %s", a.dir)
	}
	return nil
}

// Filename returns the conventional file name for an engine/key pair,
// e.g. "mermaid_3f2a9c01d4e8b765.png".
func Filename(engine string, key Key) string {
	return fmt.Sprintf("%s_%s.png", engine, key)
}

// Path returns the conventional path for an engine/key pair inside the
// cache directory.
func (a *Artifacts) Path(engine string, key Key) string {
	return filepath.Join(a.dir, Filename(engine, key))
}

// Lookup reports whether an artifact for the engine/key pair already exists
// at its conventional path. It returns the path and true on a hit. Contents
// are never verified against the key.
func (a *Artifacts) Lookup(engine string, key Key) (string, bool) {
	path := a.Path(engine, key)
	if _, err := os.Stat(path); err != nil {
		observability.Cache().OnMiss(engine)
		return "", false
	}
	observability.Cache().OnHit(engine)
	return path, true
}

// Clear removes all conventionally named artifacts for the given engines
// from the cache directory and returns how many files were deleted. Files
// that do not match the convention are left alone.
func (a *Artifacts) Clear(engines ...string) (int, error) {
	count := 0
	for _, engine := range engines {
		matches, err := filepath.Glob(filepath.Join(a.dir, engine+"_*.png"))
		if err != nil {
			return count, errors.Wrap(errors.ErrCodeFilesystem, err, "scan image directory %s", a.dir)
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				return count, errors.Wrap(errors.ErrCodeFilesystem, err, "remove artifact %s", m)
			}
			count++
		}
	}
	return count, nil
}
