package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	spanRecorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return spanRecorder
}

func TestStartStoreSpan(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		operation StoreOperation
	}{
		{"read with key", "gamerank:votes:abc", StoreOperationRead},
		{"write with key", "gamerank:votes:abc", StoreOperationWrite},
		{"delete with key", "gamerank:votes:abc", StoreOperationDelete},
		{"read without key", "", StoreOperationRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spanRecorder := newRecorder(t)

			_, endSpan := StartStoreSpan(context.Background(), "redis", tt.key, tt.operation)
			endSpan(nil)

			spans := spanRecorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			span := spans[0]

			if want := "redis " + string(tt.operation); span.Name() != want {
				t.Errorf("expected span name %q, got %q", want, span.Name())
			}

			got := make(map[attribute.Key]string)
			for _, attr := range span.Attributes() {
				got[attr.Key] = attr.Value.AsString()
			}
			if got["db.system"] != "redis" {
				t.Errorf("expected db.system=redis, got %q", got["db.system"])
			}
			if got["db.operation"] != string(tt.operation) {
				t.Errorf("expected db.operation=%s, got %q", tt.operation, got["db.operation"])
			}
			key, hasKey := got["db.key"]
			if tt.key != "" && key != tt.key {
				t.Errorf("expected db.key=%s, got %q", tt.key, key)
			}
			if tt.key == "" && hasKey {
				t.Error("unexpected db.key attribute")
			}
		})
	}
}

func TestStartStoreSpan_WithError(t *testing.T) {
	spanRecorder := newRecorder(t)
	testErr := errors.New("connection refused")

	_, endSpan := StartStoreSpan(context.Background(), "redis", "k", StoreOperationRead)
	endSpan(testErr)

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status().Code.String() != "Error" {
		t.Errorf("expected error status, got %s", span.Status().Code.String())
	}
	if span.Status().Description != testErr.Error() {
		t.Errorf("expected error description %q, got %q", testErr.Error(), span.Status().Description)
	}
}

func TestStartSpan(t *testing.T) {
	spanRecorder := newRecorder(t)

	ctx, endParent := StartSpan(context.Background(), "engine.rank")
	_, endChild := StartStoreSpan(ctx, "redis", "k", StoreOperationRead)
	endChild(nil)
	endParent(nil)

	spans := spanRecorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	child, parent := spans[0], spans[1]
	if parent.Name() != "engine.rank" {
		t.Errorf("expected parent span name engine.rank, got %q", parent.Name())
	}
	if parent.InstrumentationScope().Name != TracerName {
		t.Errorf("expected scope %q, got %q", TracerName, parent.InstrumentationScope().Name)
	}
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("store span should be a child of the engine span")
	}
	if code := parent.Status().Code.String(); code != "Unset" && code != "Ok" {
		t.Errorf("expected Unset or Ok status, got %s", code)
	}
}

func TestStartSpan_WithError(t *testing.T) {
	spanRecorder := newRecorder(t)

	_, endSpan := StartSpan(context.Background(), "engine.batch_score")
	endSpan(errors.New("cancelled"))

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code.String() != "Error" {
		t.Errorf("expected error status, got %s", spans[0].Status().Code.String())
	}
}

func TestAddEventAndSetAttributes(t *testing.T) {
	spanRecorder := newRecorder(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
	AddEvent(ctx, "cache_hit", attribute.String("content_id", "abc"), attribute.Int("bucket", 12))
	SetAttributes(ctx, attribute.String("rank.mode", "hot"), attribute.Int("rank.candidates", 3))
	span.End()

	spans := spanRecorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	events := spans[0].Events()
	if len(events) != 1 || events[0].Name != "cache_hit" {
		t.Fatalf("expected one cache_hit event, got %+v", events)
	}
	if len(events[0].Attributes) != 2 {
		t.Errorf("expected 2 event attributes, got %d", len(events[0].Attributes))
	}

	var hasMode bool
	for _, attr := range spans[0].Attributes() {
		if attr.Key == "rank.mode" && attr.Value.AsString() == "hot" {
			hasMode = true
		}
	}
	if !hasMode {
		t.Error("missing rank.mode attribute")
	}
}
