package app

import (
	"context"

	"github.com/grindlemire/graft"

	"go.kiln.build/kiln/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.kiln.build/kiln/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.kiln.build/kiln/internal/core/ports"
	"go.kiln.build/kiln/internal/engine/cache"    //nolint:depguard // Wired in app layer
	"go.kiln.build/kiln/internal/engine/resolver" //nolint:depguard // Wired in app layer
	"go.kiln.build/kiln/internal/engine/scheduler"
)

// NodeID is the unique identifier for the main App Graft node.
const NodeID graft.ID = "app.main"

func init() {
	graft.Register(graft.Node[*App]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			resolver.NodeID,
			cache.NodeID,
			scheduler.NodeID,
			telemetry.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			res, err := graft.Dep[*resolver.Resolver](ctx)
			if err != nil {
				return nil, err
			}

			c, err := graft.Dep[*cache.Cache](ctx)
			if err != nil {
				return nil, err
			}

			sched, err := graft.Dep[*scheduler.Scheduler](ctx)
			if err != nil {
				return nil, err
			}

			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, res, c, sched, tracer), nil
		},
	})
}
