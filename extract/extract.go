// Package extract parses rendered leaderboard HTML into a rank.Snapshot.
//
// The extractor is deliberately tolerant of presentation churn: it keys on
// the semantic structure (a table whose body rows are ranked entries), not on
// CSS classes or column offsets, which change whenever the site redeploys.
// The displayed row order is taken as rank order and is never re-sorted.
package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/arenawatch/rank"
)

// MinEntries is the smallest leaderboard the extractor accepts. A page that
// renders fewer ranked rows is treated as structurally broken, not as a
// short leaderboard.
const MinEntries = 3

// ParseError reports that the expected leaderboard structure was absent or
// malformed in the fetched content.
type ParseError struct {
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extract: %s: %v", e.Reason, e.Cause)
	}
	return "extract: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Leaderboard extracts the ranked entries from rendered page HTML.
//
// The first table with at least MinEntries body rows is taken as the
// leaderboard. Ranks are assigned from display order; the rank cell the page
// renders is not trusted for numbering because real leaderboards show tied
// ranks (1, 1, 3) while a snapshot requires a contiguous sequence.
func Leaderboard(rawHTML string) (rank.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &ParseError{Reason: "unparseable html", Cause: err}
	}

	rows := pickTableRows(doc)
	if rows == nil {
		return nil, &ParseError{Reason: "no leaderboard table found"}
	}

	var snap rank.Snapshot
	rows.Each(func(i int, row *goquery.Selection) {
		entry, ok := parseRow(row)
		if !ok {
			return
		}
		entry.Rank = len(snap) + 1
		snap = append(snap, entry)
	})

	if len(snap) < MinEntries {
		return nil, &ParseError{
			Reason: fmt.Sprintf("found %d ranked entries, need at least %d", len(snap), MinEntries),
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, &ParseError{Reason: "inconsistent leaderboard rows", Cause: err}
	}
	return snap, nil
}

// pickTableRows returns the body rows of the first table that looks like a
// leaderboard, or nil if none qualifies.
func pickTableRows(doc *goquery.Document) *goquery.Selection {
	var rows *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		candidate := table.Find("tbody tr")
		if candidate.Length() == 0 {
			// No tbody: fall back to rows that carry data cells.
			candidate = table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
				return tr.Find("td").Length() > 0
			})
		}
		if candidate.Length() >= MinEntries {
			rows = candidate
			return false
		}
		return true
	})
	return rows
}

// parseRow turns one table row into an entry. Rows without data cells or
// without a recognizable name (header rows, separators, ad rows) are skipped.
func parseRow(row *goquery.Selection) (rank.Entry, bool) {
	cells := row.Find("td")
	if cells.Length() == 0 {
		return rank.Entry{}, false
	}

	name, nameIdx := entryName(cells)
	if name == "" {
		return rank.Entry{}, false
	}

	entry := rank.Entry{Name: name}

	// Score: first numeric cell after the name column. Columns before the
	// name hold the displayed rank; columns after typically lead with the
	// score, followed by vote counts and confidence intervals.
	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i <= nameIdx {
			return true
		}
		if v, ok := parseNumber(cellText(cell)); ok {
			entry.Score = rank.Score(v)
			return false
		}
		return true
	})

	return entry, true
}

// entryName finds the entry's display name and the cell index it came from.
// Leaderboards link each entry to a detail page, so the first non-empty
// anchor wins; failing that, the first cell whose text is not purely numeric.
func entryName(cells *goquery.Selection) (string, int) {
	name := ""
	idx := -1

	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if text := collapse(cell.Find("a").First().Text()); text != "" {
			name, idx = text, i
			return false
		}
		return true
	})
	if name != "" {
		return name, idx
	}

	cells.EachWithBreak(func(i int, cell *goquery.Selection) bool {
		text := cellText(cell)
		if text == "" {
			return true
		}
		if _, numeric := parseNumber(text); numeric {
			return true
		}
		name, idx = text, i
		return false
	})
	return name, idx
}

// cellText returns the cell's text with whitespace runs collapsed.
func cellText(cell *goquery.Selection) string { return collapse(cell.Text()) }

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// parseNumber parses a cell as a score-like number. Thousands separators are
// tolerated ("1,365"); anything else non-numeric ("±5", "GPT-4") is not.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
