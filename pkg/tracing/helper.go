package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blobledger/indexer"

// StartTracing starts a span if tracing is enabled. The returned span is nil otherwise and
// has to be passed to EndTracing either way.
func StartTracing(ctx context.Context, spanName string, tracingEnabled bool, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	if !tracingEnabled {
		return ctx, nil
	}

	tracer := otel.Tracer(tracerName)
	if tracer == nil {
		return ctx, nil
	}

	var opts []trace.SpanStartOption
	if len(attributes) > 0 {
		opts = append(opts, trace.WithAttributes(attributes...))
	}

	return tracer.Start(ctx, spanName, opts...)
}

func EndTracing(span trace.Span, err error) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
