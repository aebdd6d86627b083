package scheduler

import (
	"context"

	"github.com/grindlemire/graft"

	"go.kiln.build/kiln/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/adapters/toolchain" //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/core/ports"
	"go.kiln.build/kiln/internal/engine/cache" //nolint:depguard // Wired in engine wiring
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			cache.NodeID,
			toolchain.EnvFactoryNodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			c, err := graft.Dep[*cache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			envFactory, err := graft.Dep[ports.EnvironmentFactory](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(executor, c, envFactory, tracer, log), nil
		},
	})
}
