package ports

import (
	"context"

	"go.kiln.build/kiln/internal/core/domain"
)

// EnvironmentFactory hydrates the hermetic environment variables for a set
// of tool requirements, generalizing the nix-specific "dev shell" concept
// into spec.md's opaque "tool alias at a version" requirement.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=portsmock/mock_toolchain.go -package=portsmock
type EnvironmentFactory interface {
	// GetEnvironment resolves tools (alias -> ToolSpec) into a list of
	// "KEY=VALUE" environment entries suitable for Executor.Execute.
	GetEnvironment(ctx context.Context, tools map[string]domain.ToolSpec) ([]string, error)
}

// ToolResolver resolves a tool alias and version constraint to a concrete,
// reproducible commit/revision, generalizing the nix flake-ref resolver.
type ToolResolver interface {
	Resolve(ctx context.Context, alias, version string) (commitHash string, err error)
}

// ToolInstaller materializes a resolved tool revision into a usable store
// path, generalizing the nix package installer.
type ToolInstaller interface {
	Install(ctx context.Context, alias, commitHash string) (storePath string, err error)
}
