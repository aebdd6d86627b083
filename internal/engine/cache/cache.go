// Package cache implements the rebuild-vs-skip decision: given a target's
// previous CacheRecord and its freshly resolved inputs, it decides whether
// the target is up to date, and persists the new record after a build.
package cache

import (
	"time"

	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
)

// Cache layers the rebuild-vs-skip decision over a ports.CacheStore,
// ports.Hasher, and ports.Verifier.
type Cache struct {
	store    ports.CacheStore
	hasher   ports.Hasher
	verifier ports.Verifier
}

// New creates a Cache.
func New(store ports.CacheStore, hasher ports.Hasher, verifier ports.Verifier) *Cache {
	return &Cache{store: store, hasher: hasher, verifier: verifier}
}

// InputState is the freshly computed input identity for one target,
// carried from Check to Record so a miss never recomputes its hashes.
type InputState struct {
	Hash         string
	Fingerprints []domain.FileFingerprint
}

// Check decides whether target is already up to date: its previous record
// must exist, match target's kind, optionsHash and the freshly computed
// input hash, and its declared outputs must still verify on disk with an
// mtime no older than the newest input. Any mismatch (including no
// previous record) is a miss; the computed InputState is returned either
// way. The previous record's per-file fingerprints are threaded into the
// hasher so unchanged inputs are identified by (size, mtime-ns) alone.
func (c *Cache) Check(target *domain.Target, optionsHash string, env map[string]string, resolvedInputs []string, outputRoot string) (hit bool, in InputState, err error) {
	prev, err := c.store.Get(target.Name.String())
	if err != nil {
		return false, InputState{}, err
	}

	var prevFPs []domain.FileFingerprint
	if prev != nil {
		prevFPs = prev.InputDigests
	}
	hash, fps, err := c.hasher.ComputeInputHash(target, env, resolvedInputs, prevFPs)
	if err != nil {
		return false, InputState{}, err
	}
	in = InputState{Hash: hash, Fingerprints: fps}

	if prev == nil {
		return false, in, nil
	}
	if prev.Kind != target.Kind {
		return false, in, nil
	}
	if prev.OptionsHash != optionsHash || prev.InputSetHash != in.Hash {
		return false, in, nil
	}

	ok, err := c.verifier.VerifyOutputs(outputRoot, target.EffectiveOutputs(), newestInput(in.Fingerprints))
	if err != nil {
		return false, in, err
	}
	if !ok {
		return false, in, nil
	}

	return true, in, nil
}

func newestInput(fps []domain.FileFingerprint) int64 {
	var newest int64
	for _, fp := range fps {
		if fp.ModTime > newest {
			newest = fp.ModTime
		}
	}
	return newest
}

// Record computes target's output digest and persists its CacheRecord,
// called after a successful (re)build.
func (c *Cache) Record(target *domain.Target, optionsHash string, in InputState, outputRoot string) error {
	outputHash, err := c.hasher.ComputeOutputHash(target.EffectiveOutputs(), outputRoot)
	if err != nil {
		return err
	}

	return c.store.Put(domain.CacheRecord{
		TargetName:   target.Name.String(),
		Kind:         target.Kind,
		OptionsHash:  optionsHash,
		InputSetHash: in.Hash,
		InputDigests: in.Fingerprints,
		OutputDigest: outputHash,
		Timestamp:    time.Now(),
	})
}

// Flush persists any buffered writes; called once at the end of a run.
func (c *Cache) Flush() error {
	return c.store.Flush()
}
