package etl

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var etlTracer = otel.Tracer("scoracle-etl/internal/etl")
var etlNoopSpan = trace.SpanFromContext(context.Background())

// startSpan opens a child span only when the caller is already traced, so
// CLI runs without a parent span stay span-free.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if strings.TrimSpace(name) == "" {
		return ctx, etlNoopSpan
	}
	parent := trace.SpanFromContext(ctx)
	if !parent.SpanContext().IsValid() {
		return ctx, etlNoopSpan
	}
	return etlTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
