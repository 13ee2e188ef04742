package state

import (
	"context"
	"testing"
	"time"
)

func TestCycleLog(t *testing.T) {
	store := NewStore(OpenMemory(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	store.AppendCycle(ctx, CycleRecord{StartedAt: base, Outcome: OutcomeNoChange})
	store.AppendCycle(ctx, CycleRecord{StartedAt: base.Add(time.Hour), Outcome: OutcomeFailed, Step: "fetch", Detail: "timeout"})
	store.AppendCycle(ctx, CycleRecord{StartedAt: base.Add(2 * time.Hour), Outcome: OutcomeChange, Detail: "delivered 3/3"})

	recs, err := store.RecentCycles(ctx, 10)
	if err != nil {
		t.Fatalf("RecentCycles: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	// Most recent first.
	if recs[0].Outcome != OutcomeChange || recs[2].Outcome != OutcomeNoChange {
		t.Fatalf("unexpected order: %+v", recs)
	}
	if recs[1].Step != "fetch" || recs[1].Detail != "timeout" {
		t.Fatalf("failed record lost step/detail: %+v", recs[1])
	}
	if !recs[2].StartedAt.Equal(base) {
		t.Fatalf("started_at = %v, want %v", recs[2].StartedAt, base)
	}
}

func TestRecentCycles_Limit(t *testing.T) {
	store := NewStore(OpenMemory(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.AppendCycle(ctx, CycleRecord{StartedAt: time.Now(), Outcome: OutcomeNoChange})
	}

	recs, err := store.RecentCycles(ctx, 2)
	if err != nil {
		t.Fatalf("RecentCycles: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}
