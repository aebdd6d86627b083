package toolchain

import (
	"context"

	"github.com/grindlemire/graft"

	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// ResolverNodeID is the unique identifier for the tool resolver node.
	ResolverNodeID graft.ID = "adapter.toolchain.resolver"
	// InstallerNodeID is the unique identifier for the tool installer node.
	InstallerNodeID graft.ID = "adapter.toolchain.installer"
	// EnvFactoryNodeID is the unique identifier for the environment factory node.
	EnvFactoryNodeID graft.ID = "adapter.toolchain.env_factory"
)

func init() {
	graft.Register(graft.Node[ports.ToolResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolResolver, error) {
			return NewResolver()
		},
	})

	graft.Register(graft.Node[ports.ToolInstaller]{
		ID:        InstallerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ToolInstaller, error) {
			return NewInstaller(), nil
		},
	})

	graft.Register(graft.Node[ports.EnvironmentFactory]{
		ID:        EnvFactoryNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ResolverNodeID},
		Run: func(ctx context.Context) (ports.EnvironmentFactory, error) {
			resolver, err := graft.Dep[ports.ToolResolver](ctx)
			if err != nil {
				return nil, err
			}
			concrete, ok := resolver.(*Resolver)
			if !ok {
				return nil, zerr.New("toolchain: resolver node did not produce a *Resolver")
			}
			return NewEnvFactory(concrete), nil
		},
	})
}
