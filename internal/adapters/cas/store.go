// Package cas persists CacheRecords using a file-per-target strategy: each
// target's record lives in its own sha256-named JSON file under the
// workspace's cache directory, written atomically via temp-file-then-rename.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore rooted at a workspace directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root (the workspace root; records live
// under root/domain.DefaultCachePath()).
func NewStore(root string) (*Store, error) {
	return &Store{root: filepath.Clean(root)}, nil
}

// Get retrieves the record for targetName, or nil, nil if none is cached.
func (s *Store) Get(targetName string) (*domain.CacheRecord, error) {
	filename := s.filenameFor(targetName)
	//nolint:gosec // path is constructed from a trusted root and a hashed name
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read cache record"), "target", targetName)
	}

	var record domain.CacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal cache record"), "target", targetName)
	}
	if record.FormatVersion != domain.CacheFormatVersion {
		return nil, nil
	}
	return &record, nil
}

// Put writes record atomically, keyed by record.TargetName.
func (s *Store) Put(record domain.CacheRecord) error {
	record.FormatVersion = domain.CacheFormatVersion

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to marshal cache record"), "target", record.TargetName)
	}

	filename := s.filenameFor(record.TargetName)
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, "failed to create cache directory")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp cache file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return zerr.Wrap(err, "failed to write temp cache file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp cache file")
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return zerr.Wrap(err, "failed to rename temp cache file into place")
	}

	return nil
}

// Flush is a no-op: Put already persists each record atomically.
func (s *Store) Flush() error {
	return nil
}

func (s *Store) filenameFor(targetName string) string {
	hash := sha256.Sum256([]byte(targetName))
	hexHash := hex.EncodeToString(hash[:])
	storeDir := filepath.Join(s.root, domain.DefaultCachePath())
	return filepath.Join(storeDir, hexHash+".json")
}
