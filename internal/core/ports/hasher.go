package ports

import "go.kiln.build/kiln/internal/core/domain"

// Hasher computes the digests the incremental cache (C5) compares against
// a target's persisted CacheRecord.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=portsmock/mock_hasher.go -package=portsmock
type Hasher interface {
	// ComputeFileHash digests a single file's contents.
	ComputeFileHash(path string) (uint64, error)
	// ComputeInputHash digests target's definition, its resolved
	// environment, and every resolved input file, producing the
	// InputSetHash of a CacheRecord plus the per-file fingerprints that
	// back it. prev carries the previous record's fingerprints: an input
	// whose (size, mtime-ns) still matches its previous fingerprint
	// reuses the recorded digest instead of re-reading the file.
	ComputeInputHash(target *domain.Target, env map[string]string, resolvedInputs []string, prev []domain.FileFingerprint) (string, []domain.FileFingerprint, error)
	// ComputeOutputHash digests every declared output beneath root,
	// producing the OutputDigest half of a CacheRecord.
	ComputeOutputHash(outputs []string, root string) (string, error)
}
