package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/testing/mocks"
)

func newTracedStore(t *testing.T, next storage.Store) (*TracedStore, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { tp.Shutdown(context.Background()) })

	m, reader := newTestMetrics(t)
	return NewTracedStore(next, "memory", tp.Tracer("test"), m), recorder, reader
}

func TestTracedStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, recorder, reader := newTracedStore(t, storage.NewMemoryStore())

	if err := s.Set(ctx, "@favorites", `["a"]`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "@favorites")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != `["a"]` {
		t.Errorf("Get() = %s", got)
	}
	if err := s.Remove(ctx, "@favorites"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("spans = %d, want 3", len(spans))
	}
	if spans[0].Name() != "SET @favorites" {
		t.Errorf("span name = %s", spans[0].Name())
	}
	for _, span := range spans {
		if span.Status().Code != codes.Ok {
			t.Errorf("%s status = %v, want Ok", span.Name(), span.Status().Code)
		}
	}

	if got := sumOf(t, reader, "storage_operations_total", attribute.String("outcome", "success")); got != 3 {
		t.Errorf("successful operations = %d, want 3", got)
	}
}

func TestTracedStore_MissIsNotAnError(t *testing.T) {
	s, recorder, reader := newTracedStore(t, storage.NewMemoryStore())

	_, err := s.Get(context.Background(), "@missing")
	if !errors.Is(err, storage.ErrKeyNotFound) {
		t.Fatalf("Get() error = %v, want ErrKeyNotFound", err)
	}

	span := recorder.Ended()[0]
	if span.Status().Code == codes.Error {
		t.Error("a miss should not mark the span as failed")
	}
	if got := sumOf(t, reader, "storage_operations_total", attribute.String("outcome", "error")); got != 0 {
		t.Errorf("failed operations = %d, want 0", got)
	}
}

func TestTracedStore_Failure(t *testing.T) {
	kv := mocks.NewKVStore()
	kv.SetErr = errors.New("disk full")
	s, recorder, reader := newTracedStore(t, kv)

	if err := s.Set(context.Background(), "@favorites", "[]"); err == nil {
		t.Fatal("Set() should fail")
	}

	span := recorder.Ended()[0]
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status().Code)
	}
	if len(span.Events()) == 0 {
		t.Error("error event should be recorded")
	}
	if got := sumOf(t, reader, "storage_operations_total",
		attribute.String("operation", "SET"),
		attribute.String("outcome", "error"),
	); got != 1 {
		t.Errorf("failed SETs = %d, want 1", got)
	}
}

func TestTracedStore_PingAndUnwrap(t *testing.T) {
	inner := storage.NewMemoryStore()
	s, _, _ := newTracedStore(t, inner)

	if err := storage.Ping(context.Background(), s); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if s.Unwrap() != storage.Store(inner) {
		t.Error("Unwrap() should return the wrapped store")
	}
	if err := storage.Close(s); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestTraceID_NoSpan(t *testing.T) {
	if TraceID(context.Background()) != "" {
		t.Error("TraceID without a span should be empty")
	}
	if SpanID(context.Background()) != "" {
		t.Error("SpanID without a span should be empty")
	}
}
