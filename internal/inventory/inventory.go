// Package inventory keeps a persistent record of every device discovery has seen.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// Record is one known device.
type Record struct {
	MAC       string    `json:"mac"`
	Label     string    `json:"label"`
	Group     string    `json:"group"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Store persists device records in SQLite.
type Store struct {
	db *sql.DB
}

// New creates a store on an initialized database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Upsert records a sighting, keeping the first-seen time.
func (s *Store) Upsert(ctx context.Context, id uint64, label, group string, seen time.Time) error {
	ts := seen.UTC().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_inventory (mac, label, group_label, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			label = excluded.label,
			group_label = excluded.group_label,
			last_seen = excluded.last_seen
	`, device.MAC(id), label, group, ts, ts)
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", device.MAC(id), err)
	}
	return nil
}

// List returns all known devices ordered by group and label.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mac, label, group_label, first_seen, last_seen
		FROM device_inventory
		ORDER BY group_label, label
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var r Record
		var first, last int64
		if err := rows.Scan(&r.MAC, &r.Label, &r.Group, &first, &last); err != nil {
			return nil, err
		}
		r.FirstSeen = time.UnixMilli(first).UTC()
		r.LastSeen = time.UnixMilli(last).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
