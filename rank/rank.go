// Package rank defines the leaderboard data model shared by the extractor,
// the state store, and the change detector.
package rank

import (
	"fmt"
	"time"
)

// Entry is one ranked leaderboard row. Score is optional: some leaderboards
// rank without publishing a numeric score.
type Entry struct {
	Name  string   `json:"name"`
	Rank  int      `json:"rank"`
	Score *float64 `json:"score,omitempty"`
}

// Score returns a pointer for Entry.Score.
func Score(v float64) *float64 { return &v }

// Snapshot is a full ranked observation taken at one point in time.
// Slice order is rank order.
type Snapshot []Entry

// Validate checks the snapshot invariants: ranks contiguous starting at 1,
// matching slice order, and names unique.
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s))
	for i, e := range s {
		if e.Rank != i+1 {
			return fmt.Errorf("rank: entry %d has rank %d, want %d", i, e.Rank, i+1)
		}
		if e.Name == "" {
			return fmt.Errorf("rank: entry %d has empty name", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("rank: duplicate name %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Top3 returns the three highest-ranked entries (fewer if the snapshot is
// shorter).
func (s Snapshot) Top3() Snapshot {
	if len(s) <= 3 {
		return s
	}
	return s[:3]
}

// Names returns the entry names in rank order.
func (s Snapshot) Names() []string {
	names := make([]string, len(s))
	for i, e := range s {
		names[i] = e.Name
	}
	return names
}

// ChangeEvent records that the top 3 changed between two observations.
// It is created by the change detector and consumed immediately by the
// notification dispatcher; it is never persisted.
type ChangeEvent struct {
	Previous Snapshot  `json:"previous"` // top 3 of the prior observation
	Current  Snapshot  `json:"current"`  // top 3 of the new observation
	At       time.Time `json:"at"`
}

// PreviousNames returns the prior top-3 names in rank order.
func (ev *ChangeEvent) PreviousNames() []string { return ev.Previous.Names() }

// CurrentNames returns the new top-3 names in rank order.
func (ev *ChangeEvent) CurrentNames() []string { return ev.Current.Names() }
