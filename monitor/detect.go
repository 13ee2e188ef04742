package monitor

import (
	"slices"
	"time"

	"github.com/hazyhaar/arenawatch/rank"
)

// Detect compares two snapshots restricted to the top 3 and reports whether a
// notification-worthy change occurred. It is a pure function over in-memory
// data and never fails.
//
// A nil prev means no baseline exists yet: the first observation establishes
// one silently, so a fresh deployment cannot trigger a notification storm.
// Otherwise the top-3 name lists are compared as ordered sequences — a
// reorder among the same three names counts as a change, because "top 3
// changed" means composition or order.
func Detect(prev, cur rank.Snapshot, now time.Time) *rank.ChangeEvent {
	if prev == nil {
		return nil
	}
	p, c := prev.Top3(), cur.Top3()
	if slices.Equal(p.Names(), c.Names()) {
		return nil
	}
	return &rank.ChangeEvent{Previous: p, Current: c, At: now}
}
