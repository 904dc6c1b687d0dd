package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	traceparentKey = "traceparent"
	tracestateKey  = "tracestate"
)

// TraceContext is a span's W3C trace context in a form that can be stored in
// a database row and restored later, e.g. when an outbox row is relayed.
type TraceContext struct {
	Traceparent string
	Tracestate  string
}

// CaptureTraceContext records the span in ctx with the global propagator.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Traceparent: carrier[traceparentKey], Tracestate: carrier[tracestateKey]}
}

func (tc TraceContext) IsZero() bool {
	return tc.Traceparent == "" && tc.Tracestate == ""
}

// Restore returns ctx carrying tc as its remote parent span.
func (tc TraceContext) Restore(ctx context.Context) context.Context {
	if tc.IsZero() {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier{
		traceparentKey: tc.Traceparent,
		tracestateKey:  tc.Tracestate,
	})
}
