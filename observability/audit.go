package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuditEventType labels a class of audit event.
type AuditEventType string

const (
	// EventTurnCompleted records one assistant turn answered to the user.
	EventTurnCompleted AuditEventType = "turn_completed"

	// EventTurnFailed records a turn that errored before a reply.
	EventTurnFailed AuditEventType = "turn_failed"

	// EventSessionCreated records a new conversation session.
	EventSessionCreated AuditEventType = "session_created"

	// EventSessionDeleted records a session removal.
	EventSessionDeleted AuditEventType = "session_deleted"

	// EventValidationFailure records a rejected request payload.
	EventValidationFailure AuditEventType = "validation_failure"
)

// AuditEvent is one line in the audit trail. Content is deliberately not
// recorded; the trail answers who talked to which agent and when, not what
// was said.
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	UserID    string                 `json:"user_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Agent     string                 `json:"agent,omitempty"`
	Duration  time.Duration          `json:"duration_ns,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
}

// AuditLog writes JSON-line audit events. Safe for concurrent use.
type AuditLog struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewAuditLog creates an audit log writing to w. A nil writer means stdout.
func NewAuditLog(w io.Writer) *AuditLog {
	if w == nil {
		w = os.Stdout
	}
	return &AuditLog{writer: w}
}

// OpenAuditLog creates an audit log appending to the file at path.
func OpenAuditLog(path string) (*AuditLog, io.Closer, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return NewAuditLog(file), file, nil
}

// Record writes one event, stamping the timestamp and any active trace.
func (l *AuditLog) Record(ctx context.Context, event AuditEvent) {
	if l == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()
		event.SpanID = span.SpanContext().SpanID().String()
	}

	data, err := json.Marshal(event)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit event marshal failed: %v\n", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := fmt.Fprintln(l.writer, string(data)); err != nil {
		fmt.Fprintf(os.Stderr, "audit write failed: %v\n", err)
	}
}

// TurnCompleted records a successful assistant turn.
func (l *AuditLog) TurnCompleted(ctx context.Context, userID, sessionID, category, agent string, duration time.Duration) {
	l.Record(ctx, AuditEvent{
		EventType: EventTurnCompleted,
		UserID:    userID,
		SessionID: sessionID,
		Category:  category,
		Agent:     agent,
		Duration:  duration,
	})
}

// TurnFailed records a turn that returned an error to the user.
func (l *AuditLog) TurnFailed(ctx context.Context, userID, sessionID string, duration time.Duration, err error) {
	event := AuditEvent{
		EventType: EventTurnFailed,
		UserID:    userID,
		SessionID: sessionID,
		Duration:  duration,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Record(ctx, event)
}

// ValidationFailure records a request rejected before reaching an agent.
func (l *AuditLog) ValidationFailure(ctx context.Context, userID, reason string) {
	l.Record(ctx, AuditEvent{
		EventType: EventValidationFailure,
		UserID:    userID,
		Error:     reason,
	})
}
