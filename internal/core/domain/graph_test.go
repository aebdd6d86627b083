package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTarget(name string, tags ...Tag) *Target {
	return &Target{Name: NewInternedString(name), Tags: tags}
}

func TestGraph_RegisterDuplicate(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))
	err := g.Register(newTestTarget("a"))
	assert.ErrorIs(t, err, ErrTargetAlreadyExists)
}

func TestGraph_RegisterInvalidName(t *testing.T) {
	g := NewGraph()
	err := g.Register(newTestTarget("weird<name>"))
	assert.ErrorIs(t, err, ErrInvalidTargetName)
}

func TestGraph_RegisterAfterFreeze(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))
	require.NoError(t, g.Freeze(func(t *Target) string { return t.Name.String() }))

	err := g.Register(newTestTarget("b"))
	assert.ErrorIs(t, err, ErrGraphAlreadyFrozen)
}

func TestGraph_FreezeDuplicateOutput(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))
	require.NoError(t, g.Register(newTestTarget("b")))

	err := g.Freeze(func(t *Target) string { return "out/shared" })
	assert.ErrorIs(t, err, ErrDuplicateOutput)
}

func TestGraph_FreezeInvalidOutputPath(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))

	err := g.Freeze(func(t *Target) string { return "out/foo<bar" })
	assert.ErrorIs(t, err, ErrInvalidOutputPath)
}

func TestGraph_FreezeNestedOutputUnderFileTarget(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("archive")))
	require.NoError(t, g.Register(newTestTarget("leaf")))

	err := g.Freeze(func(t *Target) string {
		if t.Name.String() == "archive" {
			return "out/app.zip"
		}
		return "out/app.zip/extra"
	})
	assert.ErrorIs(t, err, ErrNestedOutput)
}

func TestGraph_FreezeNestedOutputUnderDirectoryTargetAllowed(t *testing.T) {
	g := NewGraph()
	dirTarget := newTestTarget("dir")
	dirTarget.Output = OutputDirectory
	require.NoError(t, g.Register(dirTarget))
	require.NoError(t, g.Register(newTestTarget("file")))

	require.NoError(t, g.Freeze(func(t *Target) string {
		if t.Name.String() == "dir" {
			return "out/gen"
		}
		return "out/gen/leaf.txt"
	}))
}

func TestGraph_SelectDefaultsToFull(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))
	disabled := newTestTarget("b")
	disabled.DisableInFullBuild = true
	require.NoError(t, g.Register(disabled))
	require.NoError(t, g.Freeze(func(t *Target) string { return t.Name.String() }))

	names, err := g.Select(nil)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "a", names[0].String())
}

func TestGraph_SelectByTag(t *testing.T) {
	g := NewGraph()
	tag := NewTag("frontend")
	require.NoError(t, g.Register(newTestTarget("a", tag)))
	require.NoError(t, g.Register(newTestTarget("b")))
	require.NoError(t, g.Freeze(func(t *Target) string { return t.Name.String() }))

	names, err := g.Select([]string{"frontend"})
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "a", names[0].String())
}

func TestGraph_SelectUnknownPattern(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Register(newTestTarget("a")))
	require.NoError(t, g.Freeze(func(t *Target) string { return t.Name.String() }))

	_, err := g.Select([]string{"nonexistent"})
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestGraph_SelectBeforeFreeze(t *testing.T) {
	g := NewGraph()
	_, err := g.Select(nil)
	assert.ErrorIs(t, err, ErrGraphNotFrozen)
}
