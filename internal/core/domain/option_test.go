package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionStore_EffectiveOptionsMergesGlobalAndOverride(t *testing.T) {
	os := NewOptionStore()
	tgt := NewInternedString("app")
	require.NoError(t, os.SetGlobalOption("optimize", true))
	require.NoError(t, os.SetGlobalOption("verbose", false))
	require.NoError(t, os.DefineOption(tgt, "verbose", true))

	os.Freeze([]InternedString{tgt})

	eff, err := os.EffectiveOptionsFor(tgt)
	require.NoError(t, err)
	assert.Equal(t, true, eff["optimize"])
	assert.Equal(t, true, eff["verbose"])
}

func TestOptionStore_PrematureRead(t *testing.T) {
	os := NewOptionStore()
	_, err := os.EffectiveOptionsFor(NewInternedString("app"))
	assert.ErrorIs(t, err, ErrOptionsPremature)
}

func TestOptionStore_FrozenRejectsWrites(t *testing.T) {
	os := NewOptionStore()
	os.Freeze(nil)
	err := os.SetGlobalOption("x", 1)
	assert.ErrorIs(t, err, ErrOptionsFrozen)
}

func TestOptionStore_DuplicateDefinition(t *testing.T) {
	os := NewOptionStore()
	require.NoError(t, os.DefineOption(InternedString{}, "x", 1))
	err := os.DefineOption(InternedString{}, "x", 2)
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
}

func TestOptionStore_SetGlobalOptionOverrides(t *testing.T) {
	os := NewOptionStore()
	tgt := NewInternedString("app")
	require.NoError(t, os.DefineOption(InternedString{}, "optimize", false))
	require.NoError(t, os.SetGlobalOption("optimize", true))

	os.Freeze([]InternedString{tgt})

	eff, err := os.EffectiveOptionsFor(tgt)
	require.NoError(t, err)
	assert.Equal(t, true, eff["optimize"])
}
