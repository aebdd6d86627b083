package buildctx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.kiln.build/kiln/internal/core/buildctx"
	"go.kiln.build/kiln/internal/core/domain"
)

func newProps(t *testing.T) *domain.PropertyStore {
	t.Helper()
	ps := domain.NewPropertyStore()
	require.NoError(t, ps.DefineProperty("name", domain.PropertyString, "kiln", ""))
	return ps
}

func TestContext_Expand(t *testing.T) {
	c := buildctx.New(t.TempDir(), "target", newProps(t), nil)

	out, err := c.Expand("hello ${name}")
	require.NoError(t, err)
	assert.Equal(t, "hello kiln", out)
}

func TestContext_Expand_UndefinedProperty(t *testing.T) {
	c := buildctx.New(t.TempDir(), "target", newProps(t), nil)

	_, err := c.Expand("hello ${missing}")
	assert.ErrorIs(t, err, domain.ErrPropertyUndefined)
}

func TestContext_ResolvePath(t *testing.T) {
	root := t.TempDir()
	c := buildctx.New(root, "target", newProps(t), nil)

	assert.Equal(t, filepath.Join(root, "out/a.txt"), c.ResolvePath("out/a.txt"))
	assert.Equal(t, "/abs/a.txt", c.ResolvePath("/abs/a.txt"))
}

func TestContext_WorkDir_CreatedLazily(t *testing.T) {
	root := t.TempDir()
	c := buildctx.New(root, "target", newProps(t), nil)

	dir, err := c.WorkDir()
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, c.RemoveWorkDir())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestContext_OpenForWrite_AtomicRename(t *testing.T) {
	root := t.TempDir()
	c := buildctx.New(root, "target", newProps(t), nil)

	w, err := c.OpenForWrite("out/result.txt", 0o644)
	require.NoError(t, err)

	finalPath := filepath.Join(root, "out/result.txt")
	_, statErr := os.Stat(finalPath)
	assert.True(t, os.IsNotExist(statErr), "file must not exist before Close")

	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(finalPath) //nolint:gosec // test-controlled path
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "out"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file")
}
