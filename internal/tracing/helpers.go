// Package tracing provides OpenTelemetry distributed tracing setup and utilities.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans started by this package.
const TracerName = "gamerank"

// StoreOperation is the kind of store round trip being traced.
type StoreOperation string

const (
	// StoreOperationRead covers lookups and aggregate reads.
	StoreOperationRead StoreOperation = "read"
	// StoreOperationWrite covers vote ingestion and other mutations.
	StoreOperationWrite StoreOperation = "write"
	// StoreOperationDelete covers key removal.
	StoreOperationDelete StoreOperation = "delete"
)

// StartStoreSpan creates a client span for a round trip to a backing store.
// system names the store (for example "redis") and key the record touched.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartStoreSpan(ctx, "redis", key, tracing.StoreOperationRead)
//	defer func() { endSpan(err) }()
func StartStoreSpan(ctx context.Context, system, key string, operation StoreOperation) (context.Context, func(error)) {
	tracer := otel.Tracer(TracerName + "/store")

	spanName := system + " " + string(operation)

	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", string(operation)),
		),
	)
	if key != "" {
		span.SetAttributes(attribute.String("db.key", key))
	}

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartSpan creates a new span for a general operation.
// Returns the new context and a function to end the span.
//
// Example usage:
//
//	ctx, endSpan := tracing.StartSpan(ctx, "engine.rank")
//	defer func() { endSpan(err) }()
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, name)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// AddEvent adds an event to the current span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes sets attributes on the current span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attrs...)
}
