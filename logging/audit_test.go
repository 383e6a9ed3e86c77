package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func newTestAuditLogger(buf *bytes.Buffer) *AuditLogger {
	l := NewAuditLogger(AuditLoggerConfig{
		ServiceName: "autorent",
		Environment: "test",
		Logger:      slog.New(slog.NewJSONHandler(buf, nil)),
	})
	l.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return l
}

func decodeAuditEvent(t *testing.T, buf *bytes.Buffer) AuditEvent {
	t.Helper()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if line["msg"] != "audit_event" {
		t.Fatalf("expected audit_event message, got %v", line["msg"])
	}
	if line["audit"] != true {
		t.Error("expected audit=true attribute")
	}

	var event AuditEvent
	if err := json.Unmarshal([]byte(line["event"].(string)), &event); err != nil {
		t.Fatalf("failed to parse event payload: %v", err)
	}
	return event
}

func TestNewAuditLogger(t *testing.T) {
	logger := NewAuditLogger(AuditLoggerConfig{ServiceName: "autorent", Environment: "production"})
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
	if logger.service != "autorent" {
		t.Errorf("expected service %q, got %q", "autorent", logger.service)
	}
	if logger.environment != "production" {
		t.Errorf("expected environment %q, got %q", "production", logger.environment)
	}
}

func TestAuditLogger_LogAuth(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestAuditLogger(&buf)

	logger.LogAuth(context.Background(), AuditEventLogin, "uid-1", "ana@example.com",
		AuditOutcomeSuccess, map[string]any{"provider": "password"})

	event := decodeAuditEvent(t, &buf)
	if event.Type != AuditEventLogin {
		t.Errorf("expected type %q, got %q", AuditEventLogin, event.Type)
	}
	if event.Actor == nil || event.Actor.ID != "uid-1" || event.Actor.Email != "ana@example.com" {
		t.Errorf("unexpected actor: %+v", event.Actor)
	}
	if event.Service != "autorent" || event.Environment != "test" {
		t.Errorf("unexpected service/environment: %s/%s", event.Service, event.Environment)
	}
	if event.ID == "" {
		t.Error("expected generated event ID")
	}
	if !event.Timestamp.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp: %v", event.Timestamp)
	}
}

func TestAuditLogger_LogBooking(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		actorType string
	}{
		{"signed in user", "uid-7", "user"},
		{"anonymous", "", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newTestAuditLogger(&buf)

			logger.LogBooking(context.Background(), AuditEventBookingCreated, tt.userID, "bk-1",
				AuditOutcomeSuccess, map[string]any{"total": 215.0})

			event := decodeAuditEvent(t, &buf)
			if event.Actor.Type != tt.actorType {
				t.Errorf("expected actor type %q, got %q", tt.actorType, event.Actor.Type)
			}
			if event.Resource == nil || event.Resource.Type != "booking" || event.Resource.ID != "bk-1" {
				t.Errorf("unexpected resource: %+v", event.Resource)
			}
		})
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var logger *AuditLogger
	logger.Log(context.Background(), AuditEvent{Type: AuditEventLogout})
}

func TestTraceIDFromContext(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	if got := TraceIDFromContext(ctx); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("unexpected trace ID %q", got)
	}
}
