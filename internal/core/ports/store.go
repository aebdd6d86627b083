package ports

import "go.kiln.build/kiln/internal/core/domain"

// CacheStore persists and retrieves each target's CacheRecord across runs.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=portsmock/mock_store.go -package=portsmock
type CacheStore interface {
	// Get retrieves the record for targetName. Returns nil, nil if absent.
	Get(targetName string) (*domain.CacheRecord, error)
	// Put stores record, keyed by its TargetName.
	Put(record domain.CacheRecord) error
	// Flush persists any buffered writes atomically; called once at the
	// end of a run.
	Flush() error
}
