package fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_VerifyOutputs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "out.bin"), []byte("x"), 0o600))

	v := NewVerifier()

	ok, err := v.VerifyOutputs(root, []string{"out.bin"}, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = v.VerifyOutputs(root, []string{"out.bin", "missing.bin"}, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifier_VerifyOutputsStaleOutput(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "out.bin")
	require.NoError(t, os.WriteFile(out, []byte("x"), 0o600))

	info, err := os.Stat(out)
	require.NoError(t, err)

	v := NewVerifier()

	// An input newer than the output means the output is stale.
	newer := info.ModTime().Add(time.Second).UnixNano()
	ok, err := v.VerifyOutputs(root, []string{"out.bin"}, newer)
	require.NoError(t, err)
	assert.False(t, ok)

	// An input older than the output leaves it fresh.
	older := info.ModTime().Add(-time.Second).UnixNano()
	ok, err = v.VerifyOutputs(root, []string{"out.bin"}, older)
	require.NoError(t, err)
	assert.True(t, ok)
}
