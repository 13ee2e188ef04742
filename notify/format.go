package notify

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/arenawatch/rank"
)

// FormatMessage renders a change event as the human-readable notification
// text: new top 3 first, previous top 3 after, rank-labeled, with scores when
// the leaderboard published them.
func FormatMessage(ev rank.ChangeEvent) string {
	var b strings.Builder
	b.WriteString("Leaderboard top 3 changed!\n\nNew top 3:\n")
	writeEntries(&b, ev.Current)
	b.WriteString("\nPrevious top 3:\n")
	writeEntries(&b, ev.Previous)
	return b.String()
}

func writeEntries(b *strings.Builder, entries rank.Snapshot) {
	for _, e := range entries {
		if e.Score != nil {
			fmt.Fprintf(b, "%d. %s — score %s\n", e.Rank, e.Name, trimScore(*e.Score))
		} else {
			fmt.Fprintf(b, "%d. %s\n", e.Rank, e.Name)
		}
	}
}

// trimScore renders 1365 as "1365" and 95.2 as "95.2".
func trimScore(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
