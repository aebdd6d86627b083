package cache

import (
	"context"

	"github.com/grindlemire/graft"

	"go.kiln.build/kiln/internal/adapters/cas" //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/adapters/fs"  //nolint:depguard // Wired in engine wiring
	"go.kiln.build/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the incremental cache node.
const NodeID graft.ID = "engine.cache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.NodeID, fs.HasherNodeID, fs.VerifierNodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			store, err := graft.Dep[ports.CacheStore](ctx)
			if err != nil {
				return nil, err
			}
			hasher, err := graft.Dep[ports.Hasher](ctx)
			if err != nil {
				return nil, err
			}
			verifier, err := graft.Dep[ports.Verifier](ctx)
			if err != nil {
				return nil, err
			}
			return New(store, hasher, verifier), nil
		},
	})
}
