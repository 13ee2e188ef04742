package extract

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hazyhaar/arenawatch/rank"
)

// leaderboardHTML renders entries the way the real page does: a styled table
// with header, rank column, linked names, score and noise columns, wrapped in
// unrelated markup and irregular whitespace.
func leaderboardHTML(entries rank.Snapshot) string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Leaderboard</title></head><body>
	<nav><ul><li><a href="/about">About</a></li></ul></nav>
	<div class="wrapper">
	<table class="table svelte-82jkx">
	<thead><tr><th>Rank (UB)</th><th>Delta</th><th>Model</th><th>Score</th><th>95% CI</th><th>Votes</th></tr></thead>
	<tbody>`)
	for _, e := range entries {
		score := ""
		if e.Score != nil {
			score = fmt.Sprintf("%g", *e.Score)
		}
		fmt.Fprintf(&b, `
		<tr class="row svelte-82jkx">
			<td>  %d  </td>
			<td></td>
			<td><span class="md"><a target="_blank" href="/model">
				%s
			</a></span></td>
			<td> %s </td>
			<td>±5</td>
			<td>12,345</td>
		</tr>`, e.Rank, e.Name, score)
	}
	b.WriteString(`</tbody></table></div><footer>© example</footer></body></html>`)
	return b.String()
}

func TestLeaderboard_RoundTrip(t *testing.T) {
	want := rank.Snapshot{
		{Name: "Gemini-Ultra", Rank: 1, Score: rank.Score(1370)},
		{Name: "GPT-4o", Rank: 2, Score: rank.Score(1365.5)},
		{Name: "Claude-3-Opus", Rank: 3, Score: rank.Score(1360)},
		{Name: "Llama-3-70B", Rank: 4, Score: rank.Score(1205)},
	}

	got, err := Leaderboard(leaderboardHTML(want))
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i].Name {
			t.Errorf("entry %d: name = %q, want %q", i, got[i].Name, want[i].Name)
		}
		if got[i].Rank != want[i].Rank {
			t.Errorf("entry %d: rank = %d, want %d", i, got[i].Rank, want[i].Rank)
		}
		if got[i].Score == nil || *got[i].Score != *want[i].Score {
			t.Errorf("entry %d: score = %v, want %v", i, got[i].Score, *want[i].Score)
		}
	}
}

func TestLeaderboard_NoTable(t *testing.T) {
	_, err := Leaderboard(`<html><body><div>maintenance</div></body></html>`)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLeaderboard_TooFewEntries(t *testing.T) {
	short := rank.Snapshot{
		{Name: "Model-A", Rank: 1, Score: rank.Score(1370)},
		{Name: "Model-B", Rank: 2, Score: rank.Score(1365)},
	}
	_, err := Leaderboard(leaderboardHTML(short))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError for 2 entries, got %v", err)
	}
}

func TestLeaderboard_DuplicateNames(t *testing.T) {
	dup := rank.Snapshot{
		{Name: "Model-A", Rank: 1, Score: rank.Score(3)},
		{Name: "Model-A", Rank: 2, Score: rank.Score(2)},
		{Name: "Model-B", Rank: 3, Score: rank.Score(1)},
	}
	_, err := Leaderboard(leaderboardHTML(dup))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError for duplicate names, got %v", err)
	}
}

func TestLeaderboard_NameWithoutAnchor(t *testing.T) {
	html := `<table><tbody>
	<tr><td>1</td><td>Model-Alpha</td><td>1370</td></tr>
	<tr><td>2</td><td>Model-Beta</td><td>1365</td></tr>
	<tr><td>3</td><td>Model-Gamma</td><td>1360</td></tr>
	</tbody></table>`

	snap, err := Leaderboard(html)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if snap[0].Name != "Model-Alpha" {
		t.Fatalf("name = %q, want Model-Alpha", snap[0].Name)
	}
	if snap[0].Score == nil || *snap[0].Score != 1370 {
		t.Fatalf("score = %v, want 1370", snap[0].Score)
	}
}

func TestLeaderboard_ScoreOptional(t *testing.T) {
	html := `<table><tbody>
	<tr><td>1</td><td><a href="#">Model-A</a></td></tr>
	<tr><td>2</td><td><a href="#">Model-B</a></td></tr>
	<tr><td>3</td><td><a href="#">Model-C</a></td></tr>
	</tbody></table>`

	snap, err := Leaderboard(html)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	for i, e := range snap {
		if e.Score != nil {
			t.Errorf("entry %d: expected no score, got %v", i, *e.Score)
		}
	}
}

func TestLeaderboard_SkipsNonEntryRows(t *testing.T) {
	// A decorative table first (too small), then the real one with a
	// separator row that has no name.
	html := `
	<table><tr><td>nav</td></tr></table>
	<table><tbody>
	<tr><td colspan="3"></td></tr>
	<tr><td>1</td><td><a href="#">Model-A</a></td><td>1370</td></tr>
	<tr><td>2</td><td><a href="#">Model-B</a></td><td>1365</td></tr>
	<tr><td>3</td><td><a href="#">Model-C</a></td><td>1360</td></tr>
	</tbody></table>`

	snap, err := Leaderboard(html)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(snap) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(snap), snap.Names())
	}
	if snap[0].Name != "Model-A" || snap[0].Rank != 1 {
		t.Fatalf("unexpected first entry: %+v", snap[0])
	}
}

func TestLeaderboard_ThousandsSeparatorScore(t *testing.T) {
	html := `<table><tbody>
	<tr><td>1</td><td><a href="#">Model-A</a></td><td>1,370</td></tr>
	<tr><td>2</td><td><a href="#">Model-B</a></td><td>1,365</td></tr>
	<tr><td>3</td><td><a href="#">Model-C</a></td><td>1,360</td></tr>
	</tbody></table>`

	snap, err := Leaderboard(html)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if snap[0].Score == nil || *snap[0].Score != 1370 {
		t.Fatalf("score = %v, want 1370", snap[0].Score)
	}
}
