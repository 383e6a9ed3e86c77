package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// Authentication events
	AuditEventRegister      AuditEventType = "auth.register"
	AuditEventLogin         AuditEventType = "auth.login"
	AuditEventLoginFailed   AuditEventType = "auth.login_failed"
	AuditEventLogout        AuditEventType = "auth.logout"
	AuditEventPasswordReset AuditEventType = "auth.password_reset"

	// Booking events
	AuditEventBookingCreated  AuditEventType = "booking.created"
	AuditEventBookingReviewed AuditEventType = "booking.reviewed"

	// Local state events
	AuditEventSelectionCleared AuditEventType = "selection.cleared"
	AuditEventCatalogueRefresh AuditEventType = "catalogue.refreshed"
)

// AuditOutcome represents the outcome of an action.
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "success"
	AuditOutcomeFailure AuditOutcome = "failure"
	AuditOutcomeDenied  AuditOutcome = "denied"
)

// AuditEvent represents an audit log entry.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      AuditEventType `json:"type"`
	Actor     *AuditActor    `json:"actor"`
	Resource  *AuditResource `json:"resource,omitempty"`
	Outcome   AuditOutcome   `json:"outcome"`
	Details   map[string]any `json:"details,omitempty"`
	TraceID   string         `json:"trace_id,omitempty"`
	Service   string         `json:"service"`
	// Environment (development, staging, production)
	Environment string `json:"environment"`
}

// AuditActor represents who performed the action.
type AuditActor struct {
	// Type of actor (user, anonymous, system)
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Email string `json:"email,omitempty"`
}

// AuditResource represents the resource affected by the action.
type AuditResource struct {
	// Resource type (booking, vehicle, selection)
	Type string `json:"type"`
	ID   string `json:"id"`
}

// AuditLogger writes audit events as structured log lines.
type AuditLogger struct {
	logger      *slog.Logger
	service     string
	environment string
	now         func() time.Time
}

// AuditLoggerConfig holds configuration for the audit logger.
type AuditLoggerConfig struct {
	ServiceName string
	Environment string
	Logger      *slog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(config AuditLoggerConfig) *AuditLogger {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuditLogger{
		logger:      logger.With("audit", true),
		service:     config.ServiceName,
		environment: config.Environment,
		now:         time.Now,
	}
}

// Log logs an audit event. A nil AuditLogger drops the event.
func (l *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if l == nil {
		return
	}

	event.Service = l.service
	event.Environment = l.environment
	event.Timestamp = l.now().UTC()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.TraceID == "" {
		event.TraceID = TraceIDFromContext(ctx)
	}
	if event.Actor == nil {
		event.Actor = &AuditActor{Type: "anonymous"}
	}

	eventJSON, _ := json.Marshal(event)

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit_event",
		slog.String("event_type", string(event.Type)),
		slog.String("outcome", string(event.Outcome)),
		slog.String("event", string(eventJSON)),
	)
}

// LogAuth logs an authentication event.
func (l *AuditLogger) LogAuth(ctx context.Context, eventType AuditEventType, userID, email string, outcome AuditOutcome, details map[string]any) {
	l.Log(ctx, AuditEvent{
		Type: eventType,
		Actor: &AuditActor{
			Type:  "user",
			ID:    userID,
			Email: email,
		},
		Outcome: outcome,
		Details: details,
	})
}

// LogBooking logs a booking lifecycle event.
func (l *AuditLogger) LogBooking(ctx context.Context, eventType AuditEventType, userID, bookingID string, outcome AuditOutcome, details map[string]any) {
	actor := &AuditActor{Type: "anonymous"}
	if userID != "" {
		actor = &AuditActor{Type: "user", ID: userID}
	}

	l.Log(ctx, AuditEvent{
		Type:  eventType,
		Actor: actor,
		Resource: &AuditResource{
			Type: "booking",
			ID:   bookingID,
		},
		Outcome: outcome,
		Details: details,
	})
}

// TraceIDFromContext returns the active OpenTelemetry trace ID, or "".
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
