package monitor

import (
	"testing"
	"time"

	"github.com/hazyhaar/arenawatch/rank"
)

func snap(names ...string) rank.Snapshot {
	s := make(rank.Snapshot, len(names))
	for i, n := range names {
		s[i] = rank.Entry{Name: n, Rank: i + 1}
	}
	return s
}

func TestDetect(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		prev, cur rank.Snapshot
		want      bool
	}{
		{
			name: "no baseline is silent",
			prev: nil,
			cur:  snap("A", "B", "C", "D"),
			want: false,
		},
		{
			name: "identical top3",
			prev: snap("A", "B", "C", "D"),
			cur:  snap("A", "B", "C", "D"),
			want: false,
		},
		{
			name: "reorder within top3 is a change",
			prev: snap("Model-A", "Model-B", "Model-C"),
			cur:  snap("Model-B", "Model-A", "Model-C"),
			want: true,
		},
		{
			name: "membership change",
			prev: snap("A", "B", "C", "D"),
			cur:  snap("A", "B", "D", "C"),
			want: true,
		},
		{
			name: "change below rank 3 is ignored",
			prev: snap("A", "B", "C", "D", "E"),
			cur:  snap("A", "B", "C", "E", "D"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Detect(tt.prev, tt.cur, now)
			if (ev != nil) != tt.want {
				t.Fatalf("Detect = %v, want change=%v", ev, tt.want)
			}
			if ev != nil {
				if len(ev.Current) > 3 || len(ev.Previous) > 3 {
					t.Fatalf("event carries more than top 3: %+v", ev)
				}
				if !ev.At.Equal(now) {
					t.Fatalf("At = %v, want %v", ev.At, now)
				}
			}
		})
	}
}
