package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit(t *testing.T) {
	shutdown, err := Init("cashu-lnd-test", "test")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, shutdown(context.Background())) })

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	require.True(t, span.SpanContext().IsValid())
	require.True(t, span.SpanContext().IsSampled())
}
