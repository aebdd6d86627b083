package ports

import (
	"context"
	"io"

	"go.kiln.build/kiln/internal/core/domain"
)

// Executor runs a target's Command.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=portsmock/mock_executor.go -package=portsmock
type Executor interface {
	// Execute runs target.Command with env ("KEY=VALUE" entries, typically
	// produced by an EnvironmentFactory for hermetic execution), streaming
	// stdout/stderr to the given writers. It returns an error if the
	// process exits non-zero or fails to start.
	Execute(ctx context.Context, target *domain.Target, env []string, stdout, stderr io.Writer) error
}
