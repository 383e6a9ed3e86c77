package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/autorent/autorent-platform/pkg/storage"
)

// TraceID returns the trace ID from context.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// SpanID returns the span ID from context.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

// StorageAttributes returns common key-value store span attributes.
func StorageAttributes(backend, operation, key string) []attribute.KeyValue {
	return []attribute.KeyValue{
		semconv.DBSystemKey.String(backend),
		semconv.DBOperation(operation),
		attribute.String("db.kv.key", key),
	}
}

// TracedStore wraps a storage.Store with a span and metrics per operation.
type TracedStore struct {
	next    storage.Store
	backend string
	tracer  trace.Tracer
	metrics *Metrics
	now     func() time.Time
}

// NewTracedStore wraps next. metrics may be nil.
func NewTracedStore(next storage.Store, backend string, tracer trace.Tracer, metrics *Metrics) *TracedStore {
	return &TracedStore{
		next:    next,
		backend: backend,
		tracer:  tracer,
		metrics: metrics,
		now:     time.Now,
	}
}

// Unwrap returns the wrapped store.
func (s *TracedStore) Unwrap() storage.Store {
	return s.next
}

func (s *TracedStore) do(ctx context.Context, operation, key string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, key),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(StorageAttributes(s.backend, operation, key)...),
	)
	defer span.End()

	start := s.now()
	err := fn(ctx)

	// A missing key is an answer, not a failure
	failed := err
	if errors.Is(err, storage.ErrKeyNotFound) {
		failed = nil
		span.SetAttributes(attribute.Bool("db.kv.miss", true))
	}

	if failed != nil {
		span.RecordError(failed)
		span.SetStatus(codes.Error, failed.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	if s.metrics != nil {
		s.metrics.RecordStorage(ctx, s.backend, operation, s.now().Sub(start), failed)
	}
	return err
}

// Get implements storage.Store.
func (s *TracedStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.do(ctx, "GET", key, func(ctx context.Context) error {
		var err error
		value, err = s.next.Get(ctx, key)
		return err
	})
	return value, err
}

// Set implements storage.Store.
func (s *TracedStore) Set(ctx context.Context, key, value string) error {
	return s.do(ctx, "SET", key, func(ctx context.Context) error {
		return s.next.Set(ctx, key, value)
	})
}

// Remove implements storage.Store.
func (s *TracedStore) Remove(ctx context.Context, key string) error {
	return s.do(ctx, "REMOVE", key, func(ctx context.Context) error {
		return s.next.Remove(ctx, key)
	})
}

// Ping checks the wrapped store.
func (s *TracedStore) Ping(ctx context.Context) error {
	return storage.Ping(ctx, s.next)
}

// Close closes the wrapped store.
func (s *TracedStore) Close() error {
	return storage.Close(s.next)
}
