package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.kiln.build/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the default (otel-backed) telemetry
// adapter node. internal/adapters/telemetry/progrock registers the
// alternate "-F progrock" vertex-console formatter under its own node ID;
// cmd/kiln picks between them based on the requested formatter flag.
const NodeID graft.ID = "adapter.telemetry.otel"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Tracer, error) {
			return NewOTelTracer("kiln"), nil
		},
	})
}
