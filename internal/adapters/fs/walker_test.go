package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.kiln.build/kiln/internal/core/domain"
)

func TestWalker_SkipsGitAndJJ(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "config"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o600))

	w := NewWalker()
	var files []string
	for f := range w.WalkFiles(root, nil) {
		files = append(files, f)
	}

	assert.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "main.go"), files[0])
}

func TestWalker_AppliesExcludePredicate(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.go"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".nfs0001"), []byte("x"), 0o600))

	w := NewWalker()
	var files []string
	for f := range w.WalkFiles(root, domain.DefaultExclude) {
		files = append(files, f)
	}

	assert.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "keep.go"), files[0])
}
