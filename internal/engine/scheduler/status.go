package scheduler

import "go.kiln.build/kiln/internal/core/domain"

// Status is an alias of domain.TargetStatus kept local so callers of this
// package don't need to import domain just to compare a target's run
// state.
type Status = domain.TargetStatus

const (
	StatusPending  = domain.StatusPending
	StatusRunnable = domain.StatusRunnable
	StatusRunning  = domain.StatusRunning
	StatusSuccess  = domain.StatusSuccess
	StatusFailed   = domain.StatusFailed
	StatusSkipped  = domain.StatusSkipped
)
