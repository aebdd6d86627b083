package telemetry

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"go.kiln.build/kiln/internal/core/ports"
)

// OTelTracer implements ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer  trace.Tracer
	program *tea.Program
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(name)}
}

// SetProgram attaches a running Bubble Tea program so spans opened after
// this call also stream their Write'd output as MsgTaskLog messages,
// alongside the lifecycle events TUIBridge derives from the span processor.
func (t *OTelTracer) SetProgram(p *tea.Program) {
	t.program = p
}

// Start creates a new span for the named unit of work.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OTelSpan{span: span, program: t.program}
}

// EmitPlan records the planned run as a span event on the current context's
// span, carrying the dependency edges and the originally requested
// selectors as string-slice attributes.
func (t *OTelTracer) EmitPlan(ctx context.Context, plannedTargets []string, dependsOn map[string][]string, requested []string) {
	if t.program != nil {
		t.program.Send(MsgInitTasks{Tasks: plannedTargets})
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	edges := make([]string, 0, len(dependsOn))
	for target, deps := range dependsOn {
		edges = append(edges, fmt.Sprintf("%s<-%v", target, deps))
	}
	span.AddEvent("plan_emitted", trace.WithAttributes(
		attribute.StringSlice("planned_targets", plannedTargets),
		attribute.StringSlice("dependency_edges", edges),
		attribute.StringSlice("requested", requested),
	))
}

// OTelSpan implements ports.Span over an OpenTelemetry span.
type OTelSpan struct {
	span    trace.Span
	program *tea.Program
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError marks the span as failed and attaches err.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by recording a log event on the span and, when
// a Bubble Tea program is attached, forwarding the bytes as MsgTaskLog.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	if s.program != nil {
		data := append([]byte(nil), p...)
		s.program.Send(MsgTaskLog{SpanID: s.span.SpanContext().SpanID().String(), Data: data})
	}
	return len(p), nil
}
