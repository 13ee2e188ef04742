// Package monitor orchestrates one observation cycle:
// fetch → extract → compare → persist → notify.
//
// Cycles are short-lived and independently re-derivable from disk state; no
// cross-cycle state survives in memory. A cycle either completes or fails at
// a named step, and the external scheduler's next run is the retry policy for
// fetch and parse failures.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/arenawatch/extract"
	"github.com/hazyhaar/arenawatch/fetch"
	"github.com/hazyhaar/arenawatch/notify"
	"github.com/hazyhaar/arenawatch/rank"
	"github.com/hazyhaar/arenawatch/state"
)

// Cycle steps, in execution order. Failed cycles report the step they died at.
const (
	StepFetch   = "fetch"
	StepExtract = "extract"
	StepCompare = "compare"
	StepPersist = "persist"
	StepNotify  = "notify"
)

// CycleError tags a cycle failure with the step it occurred at.
type CycleError struct {
	Step  string
	Cause error
}

func (e *CycleError) Error() string { return fmt.Sprintf("monitor: %s: %v", e.Step, e.Cause) }

func (e *CycleError) Unwrap() error { return e.Cause }

// StateStore is the persistence surface the cycle needs. *state.Store
// satisfies it.
type StateStore interface {
	Load(ctx context.Context) (*state.PersistedState, error)
	Save(ctx context.Context, snap rank.Snapshot, observedAt time.Time) error
	AppendCycle(ctx context.Context, rec state.CycleRecord)
}

// Subscribers enumerates notification targets. *subs.Registry satisfies it.
type Subscribers interface {
	List(ctx context.Context) ([]string, error)
}

// Config tunes a Cycle.
type Config struct {
	// URL is the leaderboard page to observe.
	URL string
	// FetchTimeout bounds the fetch step, browser startup included.
	// Exceeding it is a fetch failure, not a hang. Default: 90s.
	FetchTimeout time.Duration
	// SaveAttempts bounds persist retries within one cycle. Losing the new
	// baseline would replay the same notification next cycle, so persistence
	// is worth a few attempts before giving up. Default: 3.
	SaveAttempts int
}

func (c *Config) defaults() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 90 * time.Second
	}
	if c.SaveAttempts <= 0 {
		c.SaveAttempts = 3
	}
}

// Cycle runs monitor passes over a fixed set of collaborators. One Run at a
// time: the store is single-writer.
type Cycle struct {
	cfg     Config
	fetcher fetch.Fetcher
	store   StateStore
	subs    Subscribers
	disp    *notify.Dispatcher
	logger  *slog.Logger
}

// Option configures a Cycle.
type Option func(*Cycle)

// WithLogger sets a custom logger for the cycle.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cycle) { c.logger = l }
}

// New creates a Cycle.
func New(cfg Config, fetcher fetch.Fetcher, store StateStore, subscribers Subscribers, disp *notify.Dispatcher, opts ...Option) *Cycle {
	cfg.defaults()
	c := &Cycle{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		subs:    subscribers,
		disp:    disp,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Result summarizes a completed cycle.
type Result struct {
	Outcome   string // state.OutcomeChange, OutcomeNoChange or OutcomeFailed
	Event     *rank.ChangeEvent
	Delivered int
	Failed    int
}

// Run executes one full pass. Fetch and extract failures abort the cycle with
// no state mutation; persistence must succeed before any notification goes
// out, so a crash after notifying can never replay against a stale baseline.
func (c *Cycle) Run(ctx context.Context) (Result, error) {
	started := time.Now()

	// FETCHING — the only step expected to block on external I/O.
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	rawHTML, err := c.fetcher.Fetch(fetchCtx, c.cfg.URL)
	cancel()
	if err != nil {
		return c.fail(ctx, started, StepFetch, err)
	}

	// EXTRACTING
	cur, err := extract.Leaderboard(rawHTML)
	if err != nil {
		return c.fail(ctx, started, StepExtract, err)
	}

	// COMPARING — loading the baseline is part of this phase; the comparison
	// itself cannot fail.
	prev, err := c.store.Load(ctx)
	if err != nil {
		return c.fail(ctx, started, StepCompare, err)
	}
	var prevSnap rank.Snapshot
	if prev != nil {
		prevSnap = prev.Snapshot
	}
	observedAt := time.Now()
	event := Detect(prevSnap, cur, observedAt)

	// PERSISTING — always, so observed_at reflects the latest observation
	// even when nothing changed.
	if err := c.save(ctx, cur, observedAt); err != nil {
		return c.fail(ctx, started, StepPersist, err)
	}

	// NOTIFYING
	res := Result{Outcome: state.OutcomeNoChange}
	detail := ""
	if event != nil {
		res.Outcome = state.OutcomeChange
		res.Event = event
		res.Delivered, res.Failed = c.notifyAll(ctx, event)
		detail = fmt.Sprintf("delivered %d, failed %d", res.Delivered, res.Failed)
	}

	c.store.AppendCycle(ctx, state.CycleRecord{
		StartedAt: started,
		Outcome:   res.Outcome,
		Detail:    detail,
	})
	c.logger.Info("monitor: cycle complete",
		"outcome", res.Outcome,
		"entries", len(cur),
		"delivered", res.Delivered,
		"failed", res.Failed,
		"duration", time.Since(started))
	return res, nil
}

// CurrentTop3 returns the persisted top 3 and its observation time without
// side effects. A (nil, zero, nil) return means no baseline exists yet.
func (c *Cycle) CurrentTop3(ctx context.Context) (rank.Snapshot, time.Time, error) {
	st, err := c.store.Load(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	if st == nil {
		return nil, time.Time{}, nil
	}
	return st.Snapshot.Top3(), st.ObservedAt, nil
}

// notifyAll fans the event out to the current subscriber set. Per-subscriber
// failures are isolated by the dispatcher; a registry read failure is logged
// and skips delivery but does not fail the cycle — the baseline is already
// committed.
func (c *Cycle) notifyAll(ctx context.Context, event *rank.ChangeEvent) (delivered, failed int) {
	ids, err := c.subs.List(ctx)
	if err != nil {
		c.logger.Error("monitor: list subscribers failed", "error", err)
		return 0, 0
	}
	if len(ids) == 0 {
		c.logger.Info("monitor: change detected, no subscribers")
		return 0, 0
	}

	targets := make([]notify.Subscriber, len(ids))
	for i, id := range ids {
		targets[i] = notify.Subscriber(id)
	}
	outcomes := c.disp.Notify(ctx, *event, targets)
	delivered = notify.Delivered(outcomes)
	return delivered, len(outcomes) - delivered
}

// save persists with bounded retries and short backoff.
func (c *Cycle) save(ctx context.Context, snap rank.Snapshot, observedAt time.Time) error {
	var err error
	for attempt := 1; attempt <= c.cfg.SaveAttempts; attempt++ {
		if err = c.store.Save(ctx, snap, observedAt); err == nil {
			return nil
		}
		c.logger.Warn("monitor: save failed",
			"attempt", attempt, "of", c.cfg.SaveAttempts, "error", err)
		if attempt < c.cfg.SaveAttempts {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(time.Duration(100*attempt) * time.Millisecond):
			}
		}
	}
	return err
}

func (c *Cycle) fail(ctx context.Context, started time.Time, step string, cause error) (Result, error) {
	err := &CycleError{Step: step, Cause: cause}
	c.logger.Error("monitor: cycle failed", "step", step, "error", cause)
	c.store.AppendCycle(ctx, state.CycleRecord{
		StartedAt: started,
		Outcome:   state.OutcomeFailed,
		Step:      step,
		Detail:    cause.Error(),
	})
	return Result{Outcome: state.OutcomeFailed}, err
}
