// Package progrock implements the vertex-based console formatter
// (kiln run -F progrock) on top of github.com/vito/progrock, rendering
// each target as a vertex in a live DAG-shaped terminal UI.
package progrock

import (
	"context"
	"fmt"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"go.kiln.build/kiln/internal/core/ports"
)

// Tracer implements ports.Tracer by recording each span as a progrock
// vertex keyed by a content digest of its name.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Tracer writing to a fresh progrock tape.
func New() *Tracer {
	tape := progrock.NewTape()
	return NewTracer(tape)
}

// NewTracer creates a Tracer writing to w.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{w: w, rec: progrock.NewRecorder(w)}
}

// Start opens a new vertex for name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	d := digest.FromString(name)
	v := t.rec.Vertex(d, name)
	return ctx, &Span{vertex: v}
}

// EmitPlan renders the planned run as a synthetic vertex naming every
// planned target and its dependency edges, so the progrock tape shows the
// full DAG before any target starts.
func (t *Tracer) EmitPlan(ctx context.Context, plannedTargets []string, dependsOn map[string][]string, requested []string) {
	d := digest.FromString("plan:" + fmt.Sprint(requested))
	v := t.rec.Vertex(d, fmt.Sprintf("plan %v", requested))
	for _, name := range plannedTargets {
		deps := dependsOn[name]
		_, _ = fmt.Fprintf(v.Stdout(), "%s <- %v\n", name, deps)
	}
	v.Done(nil)
}

// Close flushes and closes the underlying tape, if it supports Close.
func (t *Tracer) Close() error {
	if c, ok := t.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Span implements ports.Span wrapping a *progrock.VertexRecorder.
type Span struct {
	vertex *progrock.VertexRecorder
	err    error
}

// End completes the vertex, recording any error set via RecordError.
func (s *Span) End() {
	s.vertex.Done(s.err)
}

// RecordError marks the vertex's eventual completion as failed.
func (s *Span) RecordError(err error) {
	s.err = err
}

// SetAttribute logs key/value as a line on the vertex's stdout stream;
// progrock vertices have no structured attribute model of their own.
func (s *Span) SetAttribute(key string, value any) {
	_, _ = fmt.Fprintf(s.vertex.Stdout(), "%s=%v\n", key, value)
}

// Write streams p to the vertex's stdout.
func (s *Span) Write(p []byte) (int, error) {
	return s.vertex.Stdout().Write(p)
}
