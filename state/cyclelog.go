package state

import (
	"context"
	"time"
)

// Cycle outcomes as recorded in the cycle log.
const (
	OutcomeChange   = "change"
	OutcomeNoChange = "no-change"
	OutcomeFailed   = "failed"
)

// CycleRecord is one operator-facing row describing a monitor cycle.
// Step is set only for failed cycles; Detail carries the error text or a
// delivery summary.
type CycleRecord struct {
	StartedAt time.Time `json:"started_at"`
	Outcome   string    `json:"outcome"`
	Step      string    `json:"step,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// AppendCycle records a cycle outcome. Errors are logged, never propagated —
// a failing log write must not fail the cycle it describes.
func (s *Store) AppendCycle(ctx context.Context, rec CycleRecord) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cycle_log (started_at, outcome, step, detail)
		VALUES (?, ?, ?, ?)`,
		rec.StartedAt.Unix(), rec.Outcome, rec.Step, rec.Detail)
	if err != nil {
		s.logger.Error("state: cycle log write failed",
			"error", err, "outcome", rec.Outcome)
	}
}

// RecentCycles returns the newest cycle records, most recent first.
func (s *Store) RecentCycles(ctx context.Context, limit int) ([]CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT started_at, outcome, step, detail
		FROM cycle_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &StorageError{Op: "recent cycles", Cause: err}
	}
	defer rows.Close()

	var recs []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var started int64
		if err := rows.Scan(&started, &rec.Outcome, &rec.Step, &rec.Detail); err != nil {
			return nil, &StorageError{Op: "scan cycle", Cause: err}
		}
		rec.StartedAt = time.Unix(started, 0).UTC()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
