// Package fs adapts the host filesystem to kiln's PathSet algebra: walking
// directory trees, expanding glob patterns (including "**"), hashing file
// content, and verifying declared outputs exist.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"go.kiln.build/kiln/internal/core/domain"
)

// Walker walks directory trees, applying the default .git/.jj exclusion
// plus a caller-supplied ExcludePredicate evaluated against the path
// relative to root.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file beneath root not matched by exclude.
func (w *Walker) WalkFiles(root string, exclude domain.ExcludePredicate) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			name := d.Name()
			if d.IsDir() && (name == ".git" || name == ".jj") {
				return filepath.SkipDir
			}

			rel, relErr := filepath.Rel(root, path)
			if relErr == nil && exclude != nil && exclude(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// WalkFilesSlice is a convenience wrapper returning a slice instead of an
// iterator, used where a PathSet variant needs to collect results eagerly.
func (w *Walker) WalkFilesSlice(root string, exclude domain.ExcludePredicate) ([]string, error) {
	var out []string
	for f := range w.WalkFiles(root, exclude) {
		out = append(out, f)
	}
	return out, nil
}
