package progrock

import (
	"context"

	"github.com/grindlemire/graft"
	"go.kiln.build/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the progrock-backed telemetry
// adapter node, selected via "kiln run -F progrock" instead of the
// default otel-backed adapter/internal/adapters/telemetry.NodeID.
const NodeID graft.ID = "adapter.telemetry.progrock"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return New(), nil
		},
	})
}
