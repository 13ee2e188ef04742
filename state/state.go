// Package state persists the last-known leaderboard snapshot in SQLite.
//
// At most one PersistedState exists at a time: Save replaces it inside a
// single transaction, so a crash mid-save can never leave a state that Load
// reads back as a different, plausible-looking snapshot. Access is
// single-writer — one monitor cycle at a time owns the store.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/arenawatch/rank"
)

// StorageError reports I/O failure or corruption on the persisted state.
// "No prior state" is not a StorageError; Load reports that as (nil, nil).
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string { return fmt.Sprintf("state: %s: %v", e.Op, e.Cause) }

func (e *StorageError) Unwrap() error { return e.Cause }

// PersistedState is the most recently saved observation.
type PersistedState struct {
	Snapshot   rank.Snapshot
	ObservedAt time.Time
}

// Store owns the persisted snapshot and the cycle log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets a custom logger for the store.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore creates a Store over an already-opened database (see Open).
func NewStore(db *sql.DB, opts ...StoreOption) *Store {
	s := &Store{db: db, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load returns the persisted state, or (nil, nil) when none exists yet.
// Rows that fail snapshot validation are reported as corruption.
func (s *Store) Load(ctx context.Context) (*PersistedState, error) {
	var observedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT observed_at FROM snapshot_meta WHERE id = 1`).Scan(&observedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load meta", Cause: err}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pos, name, score FROM snapshot_entries ORDER BY pos`)
	if err != nil {
		return nil, &StorageError{Op: "load entries", Cause: err}
	}
	defer rows.Close()

	var snap rank.Snapshot
	for rows.Next() {
		var e rank.Entry
		var score sql.NullFloat64
		if err := rows.Scan(&e.Rank, &e.Name, &score); err != nil {
			return nil, &StorageError{Op: "scan entry", Cause: err}
		}
		if score.Valid {
			e.Score = rank.Score(score.Float64)
		}
		snap = append(snap, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "load entries", Cause: err}
	}

	if err := snap.Validate(); err != nil {
		return nil, &StorageError{Op: "load", Cause: fmt.Errorf("corrupt state: %w", err)}
	}

	return &PersistedState{
		Snapshot:   snap,
		ObservedAt: time.Unix(observedAt, 0).UTC(),
	}, nil
}

// Save replaces the persisted state with snap, observed at observedAt.
// The replace happens in one transaction with bounded BUSY retry.
func (s *Store) Save(ctx context.Context, snap rank.Snapshot, observedAt time.Time) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("state: refusing to save invalid snapshot: %w", err)
	}

	err := runTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_entries`); err != nil {
			return fmt.Errorf("clear entries: %w", err)
		}
		for _, e := range snap {
			var score any
			if e.Score != nil {
				score = *e.Score
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO snapshot_entries (pos, name, score) VALUES (?, ?, ?)`,
				e.Rank, e.Name, score); err != nil {
				return fmt.Errorf("insert entry %q: %w", e.Name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_meta (id, observed_at) VALUES (1, ?)
			ON CONFLICT (id) DO UPDATE SET observed_at = excluded.observed_at`,
			observedAt.Unix()); err != nil {
			return fmt.Errorf("upsert meta: %w", err)
		}
		return nil
	})
	if err != nil {
		return &StorageError{Op: "save", Cause: err}
	}

	s.logger.Debug("state: snapshot saved",
		"entries", len(snap), "observed_at", observedAt)
	return nil
}
