// Package audit – audit.go defines the decision audit trail: every command
// or path check the gateway performs becomes an Event with a stable ID, a
// severity derived from the verdict, and enough context to reconstruct what
// was asked and why it was answered that way.
package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Decision classifies the outcome of a check.
type Decision string

const (
	DecisionAllowed    Decision = "allowed"
	DecisionSoftDenied Decision = "soft_denied"
	DecisionHardDenied Decision = "hard_denied"

	// DecisionValidationFailed marks path checks that failed for mundane
	// reasons (missing file, unwritable parent) rather than a security
	// rejection; hard_denied is reserved for escapes.
	DecisionValidationFailed Decision = "validation_failed"
)

// Kind distinguishes what was being checked.
type Kind string

const (
	KindCommand Kind = "command"
	KindRead    Kind = "read"
	KindWrite   Kind = "write"
)

// Event is one audited gateway decision.
type Event struct {
	ID        string
	SessionID string
	Kind      Kind
	Input     string
	Decision  Decision
	Reason    string
	CreatedAt time.Time
}

// NewEvent builds an Event with a fresh ID and timestamp.
func NewEvent(sessionID string, kind Kind, input string, decision Decision, reason string) Event {
	return Event{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Input:     input,
		Decision:  decision,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// Recorder persists audit events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ev Event)
	Close() error
}

// LogRecorder writes events to structured logs only, for setups that do not
// want the persistent SQLite trail. Severity tracks the decision: allows at
// info, soft denials at warn, hard denials at error.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder creates a log-only recorder.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger.With("component", "audit")}
}

// Record logs the event at the severity matching its decision.
func (r *LogRecorder) Record(ev Event) {
	attrs := []any{
		"event_id", ev.ID,
		"session_id", ev.SessionID,
		"kind", string(ev.Kind),
		"input", ev.Input,
		"decision", string(ev.Decision),
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}
	switch ev.Decision {
	case DecisionHardDenied:
		r.logger.Error("gateway denied", attrs...)
	case DecisionSoftDenied:
		r.logger.Warn("gateway denied pending approval", attrs...)
	case DecisionValidationFailed:
		r.logger.Warn("gateway rejected input", attrs...)
	default:
		r.logger.Info("gateway allowed", attrs...)
	}
}

// Close is a no-op for the log recorder.
func (r *LogRecorder) Close() error { return nil }
