package otelmetrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewRecorderIsNonBlocking exercises that constructing a Recorder does
// not require a reachable collector: the gRPC exporter dials lazily, so
// New should succeed even when nothing is listening on Endpoint.
func TestNewRecorderIsNonBlocking(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := New(ctx, Config{ServiceName: "signia-test", Endpoint: "127.0.0.1:0", Insecure: true})
	require.NoError(t, err)
	defer func() { _ = r.Shutdown(context.Background()) }()

	require.NotPanics(t, func() {
		r.StageDuration("ValidateIr", 5*time.Millisecond)
		r.Counter("compile.schema.entities", 3, map[string]string{"kind": "repo"})
		r.Counter("compile.schema.entities", 2, map[string]string{"kind": "repo"})
	})
}

// TestStartSpanIsNonBlocking mirrors TestNewRecorderIsNonBlocking for the
// tracer half: starting and ending a span should not require a reachable
// collector either, since the batch span processor also dials lazily.
func TestStartSpanIsNonBlocking(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := New(ctx, Config{ServiceName: "signia-test", Endpoint: "127.0.0.1:0", Insecure: true})
	require.NoError(t, err)
	defer func() { _ = r.Shutdown(context.Background()) }()

	require.NotPanics(t, func() {
		spanCtx, span := r.StartSpan(ctx, "compile")
		require.NotNil(t, spanCtx)
		span.End()
	})
}
