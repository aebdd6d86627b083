package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.kiln.build/kiln/internal/core/ports"
)

const NodeID graft.ID = "adapter.cache_store"

func init() {
	graft.Register(graft.Node[ports.CacheStore]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.CacheStore, error) {
			// The workspace root is resolved by ConfigLoader at load time;
			// the cache store operates relative to the process's working
			// directory. cmd/kiln does not change directory, so the --root
			// flag does not move the store.
			return NewStore(".")
		},
	})
}
