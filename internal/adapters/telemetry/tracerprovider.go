package telemetry

import sdktrace "go.opentelemetry.io/otel/sdk/trace"

// NewTracerProvider builds an SDK TracerProvider that records every span
// (AlwaysSample), optionally forwarding span lifecycle events to the given
// processors. cmd/kiln installs it as the process-wide otel.TracerProvider
// before constructing the OTelTracer node, since otel.Tracer resolves
// against whatever provider is globally registered at call time.
func NewTracerProvider(processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := make([]sdktrace.TracerProviderOption, 0, len(processors)+1)
	opts = append(opts, sdktrace.WithSampler(sdktrace.AlwaysSample()))
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}
