package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"messaging-service/internal/logger"
	"messaging-service/internal/observability"
)

const auditSchemaVersion = 2

// Publisher is the subset of the broker client the auditor needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditEmitter publishes audit records for edits, purges and debug probes.
type AuditEmitter struct {
	log         *logger.Logger
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *int64       `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(log *logger.Logger, publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		log:         log,
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// WithClock replaces the timestamp source. Used by tests.
func (e *AuditEmitter) WithClock(now func() time.Time) *AuditEmitter {
	if e != nil && now != nil {
		e.now = now
	}
	return e
}

// Emit publishes one audit record. An empty requestID falls back to the one carried by ctx.
// Publish failures are logged and swallowed.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userID *int64) {
	if e == nil || e.publisher == nil {
		return
	}
	if requestID == "" {
		requestID = observability.RequestIDFromContext(ctx)
	}

	envelope := AuditEnvelope{
		SchemaVersion: auditSchemaVersion,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserID:        userID,
		Payload:       AuditPayload{Level: level, Text: text},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		envelope.TraceID = sc.TraceID().String()
	}

	if e.log != nil {
		e.log.Debug("audit emit", "level", level, "request_id", requestID, "trace_id", envelope.TraceID, "text", text)
	}
	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil && e.log != nil {
		e.log.Warn("audit publish failed", "routing_key", e.routingKey, "error", err)
	}
}
