// Package audit – sqlite.go provides the SQLite-backed audit store. It owns
// the audit_events table, truncates oversized inputs, and prunes old entries
// on a cron schedule.
package audit

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
)

// maxInputLen caps the stored input text. Denials of enormous command
// strings still audit, just abbreviated.
const maxInputLen = 500

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	rowid_seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	session_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	input      TEXT NOT NULL,
	decision   TEXT NOT NULL,
	reason     TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_created_at ON audit_events(created_at);
`

// SQLiteRecorder persists events to a local SQLite database and prunes
// entries past the retention window.
type SQLiteRecorder struct {
	db            *sql.DB
	logger        *slog.Logger
	retentionDays int
	cron          *cron.Cron
}

// NewSQLiteRecorder opens (creating if needed) the audit database at path
// and schedules retention pruning. retentionDays <= 0 disables pruning;
// schedule is a cron expression such as "@daily".
func NewSQLiteRecorder(path string, retentionDays int, schedule string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing audit schema: %w", err)
	}

	r := &SQLiteRecorder{
		db:            db,
		logger:        logger.With("component", "audit-sqlite"),
		retentionDays: retentionDays,
	}

	if retentionDays > 0 && schedule != "" {
		r.cron = cron.New()
		if _, err := r.cron.AddFunc(schedule, r.prune); err != nil {
			db.Close()
			return nil, fmt.Errorf("scheduling audit prune: %w", err)
		}
		r.cron.Start()
		// Catch up immediately; the schedule only covers steady state.
		go r.prune()
	}
	return r, nil
}

// Record inserts the event. Failures are logged, never propagated: auditing
// must not block the decision path.
func (r *SQLiteRecorder) Record(ev Event) {
	input := ev.Input
	if len(input) > maxInputLen {
		input = input[:maxInputLen] + "...[truncated]"
	}
	_, err := r.db.Exec(`
		INSERT INTO audit_events (id, session_id, kind, input, decision, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, string(ev.Kind), input, string(ev.Decision), ev.Reason,
		ev.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		r.logger.Warn("failed to write audit event", "event_id", ev.ID, "err", err)
	}
}

// Recent returns the newest n events, newest first.
func (r *SQLiteRecorder) Recent(n int) ([]Event, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, kind, input, decision, reason, created_at
		FROM audit_events
		ORDER BY rowid_seq DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var kind, decision, createdAt string
		if err := rows.Scan(&ev.ID, &ev.SessionID, &kind, &ev.Input, &decision, &ev.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		ev.Kind = Kind(kind)
		ev.Decision = Decision(decision)
		ev.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the total number of stored events.
func (r *SQLiteRecorder) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&count)
	return count, err
}

// Close stops the prune schedule and closes the database.
func (r *SQLiteRecorder) Close() error {
	if r.cron != nil {
		r.cron.Stop()
	}
	return r.db.Close()
}

// prune deletes events older than the retention window.
func (r *SQLiteRecorder) prune() {
	cutoff := time.Now().AddDate(0, 0, -r.retentionDays).UTC().Format(time.RFC3339)
	result, err := r.db.Exec("DELETE FROM audit_events WHERE created_at < ?", cutoff)
	if err != nil {
		r.logger.Warn("audit prune failed", "err", err)
		return
	}
	if n, _ := result.RowsAffected(); n > 0 {
		r.logger.Info("audit events pruned", "removed", n)
	}
}
