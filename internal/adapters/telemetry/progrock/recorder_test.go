package progrock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.kiln.build/kiln/internal/adapters/telemetry/progrock"
	"go.kiln.build/kiln/internal/core/ports"
)

func TestNew(t *testing.T) {
	tracer := progrock.New()
	assert.NotNil(t, tracer)
}

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*progrock.Tracer)(nil)
	var _ ports.Span = (*progrock.Span)(nil)
}
