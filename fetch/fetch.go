// Package fetch acquires rendered leaderboard HTML.
//
// Two implementations are provided: Browser drives headless Chrome for pages
// that render client-side (the common case for leaderboards), and HTTP does a
// plain GET for pages that render server-side. Both satisfy Fetcher, which is
// all the monitor cycle sees.
package fetch

import (
	"context"
	"fmt"
)

// Fetcher returns the rendered HTML of a page.
//
// Implementations must respect ctx for the whole acquisition, including
// browser startup, and must release every resource they acquired on all exit
// paths — a leaked Chrome process outlives the scheduled run that spawned it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Error is a fetch failure: network, browser automation, or timeout.
type Error struct {
	URL   string
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("fetch: %s: %v", e.URL, e.Cause) }

func (e *Error) Unwrap() error { return e.Cause }
