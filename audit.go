package goSession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Audit event types emitted by the session engine.
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailure     = "login_failure"
	EventLoginLockedOut   = "login_locked_out"
	EventLoginRateLimited = "login_rate_limited"
	EventRefreshSuccess   = "refresh_success"
	EventRefreshFailure   = "refresh_failure"
	EventSessionExpired   = "session_expired"
	EventSessionRestored  = "session_restored"
	EventLogout           = "logout"
)

// AuditEvent is one observable action taken by the session engine. ID is a
// per-event UUID; ClientID identifies the engine instance that emitted it,
// so events from concurrent app instances sharing a sink stay attributable.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	ClientID  string            `json:"client_id,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives audit events from the async dispatcher. Emit must be
// safe for concurrent use and should not block longer than the caller's ctx
// allows.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards every event.
type NoOpSink struct{}

// Emit describes the emit operation and its observable behavior.
func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel for the consumer to
// drain.
type ChannelSink struct {
	events chan AuditEvent
}

// NewChannelSink describes the newchannelsink operation and its observable behavior.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan AuditEvent, buffer),
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events describes the events operation and its observable behavior.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterSink writes one JSON object per line to the wrapped writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink describes the newjsonwritersink operation and its observable behavior.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit describes the emit operation and its observable behavior.
func (s *JSONWriterSink) Emit(ctx context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// newAuditEvent stamps the shared envelope fields.
func newAuditEvent(eventType, clientID string) AuditEvent {
	return AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		EventType: eventType,
		ClientID:  clientID,
	}
}
