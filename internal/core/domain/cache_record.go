package domain

import "time"

// CacheRecord is the persisted up-to-date record for one target, keyed by
// target name in the cache store. A record is produced after a successful
// build and consulted before the next one to decide rebuild-vs-skip.
type CacheRecord struct {
	TargetName    string            `json:"target_name,omitzero"`
	Kind          string            `json:"kind,omitzero"`
	OptionsHash   string            `json:"options_hash,omitzero"`
	InputSetHash  string            `json:"input_set_hash,omitzero"`
	InputDigests  []FileFingerprint `json:"input_digests,omitzero"`
	OutputDigest  string            `json:"output_digest,omitzero"`
	Timestamp     time.Time         `json:"timestamp,omitzero"`
	FormatVersion int               `json:"format_version,omitzero"`
}

// FileFingerprint is the cheap identity check (size + mtime) paired with
// the content digest computed the last time it didn't match, per spec.md's
// C5 rebuild rule: only recompute the expensive digest when the cheap
// fingerprint disagrees with the record.
type FileFingerprint struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time_ns"`
	Digest  string `json:"digest"`
}

// CacheFormatVersion is bumped whenever CacheRecord's shape changes in a
// way that makes old records unreadable; a version mismatch forces a full
// rebuild rather than attempting to interpret a stale record.
const CacheFormatVersion = 1
