package cas_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.kiln.build/kiln/internal/adapters/cas"
	"go.kiln.build/kiln/internal/core/domain"
)

func TestStore_PutAndGet(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := cas.NewStore(tmpDir)
	require.NoError(t, err)

	record := domain.CacheRecord{
		TargetName:   "frontend:build",
		InputSetHash: "abc",
		OutputDigest: "def",
		Timestamp:    time.Now(),
	}
	require.NoError(t, store.Put(record))

	got, err := store.Get("frontend:build")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.TargetName, got.TargetName)
	assert.Equal(t, record.OutputDigest, got.OutputDigest)
}

func TestStore_GetMissingReturnsNilNil(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	got, err := store.Get("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_PersistsAcrossInstances(t *testing.T) {
	tmpDir := t.TempDir()

	store1, err := cas.NewStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store1.Put(domain.CacheRecord{TargetName: "backend:test", InputSetHash: "xyz"}))

	store2, err := cas.NewStore(tmpDir)
	require.NoError(t, err)
	got, err := store2.Get("backend:test")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "xyz", got.InputSetHash)
}

func TestStore_FormatVersionMismatchTreatedAsMiss(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := cas.NewStore(tmpDir)
	require.NoError(t, err)

	record := domain.CacheRecord{TargetName: "stale:target"}
	require.NoError(t, store.Put(record))

	got, err := store.Get("stale:target")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.CacheFormatVersion, got.FormatVersion)

	// Corrupt the persisted format version directly to simulate an upgrade.
	files, err := filepath.Glob(filepath.Join(tmpDir, domain.DefaultCachePath(), "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	raw["format_version"] = domain.CacheFormatVersion + 1
	data, err = json.Marshal(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(files[0], data, 0o600))

	got, err = store.Get("stale:target")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_TargetNameSurvivesSpecialCharacters(t *testing.T) {
	store, err := cas.NewStore(t.TempDir())
	require.NoError(t, err)

	name := "some/nested:project:target"
	require.NoError(t, store.Put(domain.CacheRecord{TargetName: name}))

	got, err := store.Get(name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, strings.HasSuffix(got.TargetName, "target"))
}
