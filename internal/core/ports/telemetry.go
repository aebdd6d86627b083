package ports

import (
	"context"
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=telemetry.go -destination=portsmock/mock_telemetry.go -package=portsmock

// Tracer is the entry point for creating spans and announcing a run's
// plan, implemented by the otel-backed adapter, the progrock vertex
// formatter, and a no-op fallback.
type Tracer interface {
	// Start creates a new span for the named unit of work.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan announces the full set of targets this run will touch
	// (plannedTargets, in execution order) along with their dependency
	// edges and the originally requested selection, before execution begins.
	EmitPlan(ctx context.Context, plannedTargets []string, dependsOn map[string][]string, requested []string)
}

// Span represents one unit of work's telemetry lifetime.
type Span interface {
	io.Writer
	End()
	RecordError(err error)
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct{}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)
