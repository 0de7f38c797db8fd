package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Actions recorded against profiles and client config files.
const (
	ActionProfileSave   = "profile.save"
	ActionProfileDelete = "profile.delete"
	ActionConfigInstall = "config.install"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Entry is a single audit log record.
type Entry struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	Detail    string    `json:"detail"`
	Outcome   string    `json:"outcome"`
}

// Filter narrows Query. Zero fields match everything.
type Filter struct {
	Actor    string
	Action   string
	Resource string
	Limit    int
}

// Log provides append-only audit logging backed by SQLite.
type Log struct {
	db *sql.DB
}

// New creates a new audit Log.
func New(db *sql.DB) *Log {
	return &Log{db: db}
}

// Append writes a single audit entry. Detail should be a JSON string.
func (l *Log) Append(ctx context.Context, actor, action, resource, detail, outcome string) error {
	if detail == "" {
		detail = "{}"
	}
	if outcome == "" {
		outcome = OutcomeSuccess
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_log (actor, action, resource, detail, outcome)
		 VALUES (?, ?, ?, ?, ?)`,
		actor, action, resource, detail, outcome)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// Query returns matching entries, newest first. Limit defaults to 50.
func (l *Log) Query(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	query := `SELECT id, timestamp, actor, action, resource, detail, outcome FROM audit_log WHERE 1=1`
	args := []any{}

	for col, val := range map[string]string{"actor": f.Actor, "action": f.Action, "resource": f.Resource} {
		if val != "" {
			query += ` AND ` + col + ` = ?`
			args = append(args, val)
		}
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, f.Limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.Resource, &e.Detail, &e.Outcome); err != nil {
			return nil, fmt.Errorf("audit scan: %w", err)
		}
		e.Timestamp, _ = time.Parse("2006-01-02 15:04:05", ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DetailJSON is a helper to create a JSON detail string from a map.
func DetailJSON(m map[string]any) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
