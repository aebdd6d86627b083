package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGlobTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	paths := []string{
		"src/a.go",
		"src/pkg/b.go",
		"src/pkg/inner/c.go",
		"docs/readme.md",
	}
	for _, p := range paths {
		full := filepath.Join(root, p)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte("x"), 0o600))
	}
	return root
}

func TestResolver_GlobDoubleStarMatchesAnyDepth(t *testing.T) {
	root := setupGlobTree(t)
	r := NewResolver(NewWalker())

	matches, err := r.Glob(root, "src/**/*.go", nil)
	require.NoError(t, err)
	assert.Len(t, matches, 3)
}

func TestResolver_GlobSingleStarNonRecursive(t *testing.T) {
	root := setupGlobTree(t)
	r := NewResolver(NewWalker())

	matches, err := r.Glob(root, "src/*.go", nil)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestResolver_GlobRejectsTrailingDoubleStarStar(t *testing.T) {
	root := setupGlobTree(t)
	r := NewResolver(NewWalker())

	_, err := r.Glob(root, "src/**/*/", nil)
	assert.Error(t, err)
}

func TestResolver_ResolveInputsNotFound(t *testing.T) {
	root := setupGlobTree(t)
	r := NewResolver(NewWalker())

	_, err := r.ResolveInputs([]string{"nonexistent/*.go"}, root)
	assert.Error(t, err)
}
