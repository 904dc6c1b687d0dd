package otelx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/slotbook/libs/config"
)

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := CaptureTraceContext(ctx)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", tc.Traceparent)
	assert.Empty(t, tc.Tracestate)
	assert.False(t, tc.IsZero())

	restored := trace.SpanContextFromContext(tc.Restore(context.Background()))
	assert.Equal(t, traceID, restored.TraceID())
	assert.Equal(t, spanID, restored.SpanID())
	assert.True(t, restored.IsRemote())
}

func TestEmptyTraceContextKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.True(t, CaptureTraceContext(ctx).IsZero())
	assert.Equal(t, ctx, TraceContext{}.Restore(ctx))
}

func TestConfigFromDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "7")
	t.Setenv("DEPLOYMENT_ENV", "")
	l, err := config.Load()
	require.NoError(t, err)

	cfg := ConfigFrom(l, "booking-service")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.Equal(t, "booking-service", cfg.ServiceName)
	assert.Equal(t, "local", cfg.Environment)
}
