// Package subs is the subscriber registry: the enumerable set of notification
// targets. It is written by an external command front end (a chat bot handling
// /subscribe and /unsubscribe) and read by the notification dispatcher.
package subs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Schema holds the subscribers table. Pass it to state.Open via WithSchema so
// the registry shares the monitor's database.
const Schema = `
CREATE TABLE IF NOT EXISTS subscribers (
	id       TEXT PRIMARY KEY,
	added_at INTEGER NOT NULL
);
`

// Registry stores subscriber identifiers. Identifiers are opaque: chat IDs
// for Telegram, URLs for webhooks.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a Registry over an already-opened database whose schema
// includes Schema.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// Add registers a subscriber. It reports false if the subscriber was already
// registered.
func (r *Registry) Add(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("subs: empty subscriber id")
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO subscribers (id, added_at) VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING`,
		id, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("subs: add %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subs: add %s: %w", id, err)
	}
	return n > 0, nil
}

// Remove deregisters a subscriber. It reports false if the subscriber was not
// registered.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("subs: remove %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("subs: remove %s: %w", id, err)
	}
	return n > 0, nil
}

// List returns all subscriber identifiers in registration order.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM subscribers ORDER BY added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("subs: list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("subs: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
