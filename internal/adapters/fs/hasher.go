package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes the xxhash-based digests the incremental cache (C5)
// compares against a target's persisted CacheRecord.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the xxhash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return hasher.Sum64(), nil
}

// ComputeInputHash digests target's definition, its resolved environment,
// and the already-resolved input file list. Each input contributes a
// FileFingerprint; an input whose (size, mtime-ns) matches its previous
// fingerprint reuses the recorded digest, so an unchanged tree is hashed
// without re-reading a single file.
func (h *Hasher) ComputeInputHash(target *domain.Target, env map[string]string, resolvedInputs []string, prev []domain.FileFingerprint) (string, []domain.FileFingerprint, error) {
	hasher := xxhash.New()

	h.hashTargetDefinition(target, hasher)
	h.hashEnvironment(env, hasher)

	prevByPath := make(map[string]domain.FileFingerprint, len(prev))
	for _, fp := range prev {
		prevByPath[fp.Path] = fp
	}

	sorted := make([]string, len(resolvedInputs))
	copy(sorted, resolvedInputs)
	sort.Strings(sorted)

	var fps []domain.FileFingerprint
	for _, path := range sorted {
		if err := h.appendFingerprints(path, prevByPath, &fps); err != nil {
			return "", nil, err
		}
	}

	sort.Slice(fps, func(i, j int) bool { return fps[i].Path < fps[j].Path })
	for _, fp := range fps {
		_, _ = hasher.WriteString(fp.Path)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(fp.Digest)
		_, _ = hasher.Write([]byte{0})
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), fps, nil
}

// appendFingerprints stats path and appends its fingerprint(s) to fps: a
// directory is expanded into one fingerprint per regular file beneath it.
// The content digest is recomputed only when (size, mtime-ns) disagrees
// with the previous fingerprint for the same path.
func (h *Hasher) appendFingerprints(path string, prevByPath map[string]domain.FileFingerprint, fps *[]domain.FileFingerprint) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	if info.IsDir() {
		for filePath := range h.walker.WalkFiles(path, domain.DefaultExclude) {
			if err := h.appendFingerprints(filePath, prevByPath, fps); err != nil {
				return err
			}
		}
		return nil
	}

	size := info.Size()
	mtime := info.ModTime().UnixNano()
	if p, ok := prevByPath[path]; ok && p.Size == size && p.ModTime == mtime && p.Digest != "" {
		*fps = append(*fps, p)
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}
	*fps = append(*fps, domain.FileFingerprint{
		Path:    path,
		Size:    size,
		ModTime: mtime,
		Digest:  fmt.Sprintf("%016x", hash),
	})
	return nil
}

func (h *Hasher) hashTargetDefinition(target *domain.Target, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(target.Name.String())
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(target.Kind)
	_, _ = hasher.Write([]byte{0})

	for _, c := range target.Command {
		_, _ = hasher.WriteString(c)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	for _, out := range target.Outputs {
		_, _ = hasher.WriteString(out)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})

	aliases := make([]string, 0, len(target.Tools))
	for alias := range target.Tools {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		_, _ = hasher.WriteString(alias)
		_, _ = hasher.Write([]byte{':'})
		_, _ = hasher.WriteString(target.Tools[alias].Version)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

func (h *Hasher) hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

// ComputeOutputHash digests every output path, sorted for determinism. An
// output that does not exist is skipped rather than failing the whole
// digest: a command-only target has no real file behind its primary
// output, and the cache's output verifier already refuses a hit for a
// target whose declared outputs are genuinely missing.
func (h *Hasher) ComputeOutputHash(outputs []string, root string) (string, error) {
	sorted := make([]string, len(outputs))
	copy(sorted, outputs)
	sort.Strings(sorted)

	hasher := xxhash.New()
	for _, output := range sorted {
		path := resolveOutput(root, output)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", zerr.With(zerr.Wrap(err, "failed to stat output file"), "path", path)
		}
		if info.IsDir() {
			continue
		}

		hash, err := h.ComputeFileHash(path)
		if err != nil {
			return "", err
		}
		if err := binary.Write(hasher, binary.LittleEndian, hash); err != nil {
			return "", zerr.Wrap(err, "failed to write hash to digest")
		}
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
