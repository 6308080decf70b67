// Package ledger keeps a history of classified gestures and the outcome of
// the action each one ran.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType is the kind of a history entry.
type EventType string

const (
	EventGesture         EventType = "gesture"
	EventActionCompleted EventType = "action_completed"
	EventActionFailed    EventType = "action_failed"
	EventActionSkipped   EventType = "action_skipped"
)

// DefaultLimit caps History when the filter sets no limit.
const DefaultLimit = 100

// Entry is one row of gesture history. Entries of one gesture share a
// GestureID.
type Entry struct {
	ID        int64          `json:"id"`
	Kind      EventType      `json:"kind"`
	At        time.Time      `json:"at"`
	Source    string         `json:"source,omitempty"`
	GestureID string         `json:"gesture_id,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Filter narrows History. Zero values match everything.
type Filter struct {
	Kinds     []EventType
	GestureID string
	Limit     int
}

// Ledger stores gesture history in SQLite.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a Ledger over an opened database.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Record appends one entry. source names the button and gesture,
// e.g. "button:17/single".
func (l *Ledger) Record(kind EventType, gestureID, source string, detail map[string]any) error {
	var raw sql.NullString
	if len(detail) > 0 {
		b, err := json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("encode %s detail: %w", kind, err)
		}
		raw = sql.NullString{String: string(b), Valid: true}
	}

	_, err := l.db.Exec(
		`INSERT INTO gesture_history (kind, at, source, gesture_id, detail) VALUES (?, ?, ?, ?, ?)`,
		string(kind), l.now().UTC().UnixMilli(), source, gestureID, raw,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

// History returns matching entries, newest first.
func (l *Ledger) History(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if len(f.Kinds) > 0 {
		marks := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			marks[i] = "?"
			args = append(args, string(k))
		}
		where = append(where, "kind IN ("+strings.Join(marks, ", ")+")")
	}
	if f.GestureID != "" {
		where = append(where, "gesture_id = ?")
		args = append(args, f.GestureID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, kind, at, source, gesture_id, detail FROM gesture_history`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e    Entry
			kind string
			at   int64
			raw  sql.NullString
		)
		if err := rows.Scan(&e.ID, &kind, &at, &e.Source, &e.GestureID, &raw); err != nil {
			return nil, err
		}
		e.Kind = EventType(kind)
		e.At = time.UnixMilli(at).UTC()
		if raw.Valid {
			if err := json.Unmarshal([]byte(raw.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("decode entry %d: %w", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than retention and returns how many went.
func (l *Ledger) Prune(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().UnixMilli()
	res, err := l.db.Exec(`DELETE FROM gesture_history WHERE at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}
