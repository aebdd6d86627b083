package resolver

import (
	"context"

	"github.com/grindlemire/graft"

	"go.kiln.build/kiln/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the dependency resolver node.
const NodeID graft.ID = "engine.resolver"

func init() {
	graft.Register(graft.Node[*Resolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Resolver, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			r := New()
			r.Logger = log
			return r, nil
		},
	})
}
