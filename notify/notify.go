// Package notify formats change notifications and fans them out to
// subscribers.
//
// Delivery is fire-and-forget per subscriber with independent outcome
// accounting: one unreachable subscriber never blocks the rest, and never
// rolls anything back. Idempotence is the caller's job — the monitor cycle
// commits the new baseline before it calls Notify.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/arenawatch/rank"
)

// Subscriber is an opaque delivery target: a chat ID for Telegram, a URL for
// webhooks. The registry that manages the set lives elsewhere.
type Subscriber string

// Notifier delivers one message to one subscriber.
type Notifier interface {
	Send(ctx context.Context, to Subscriber, text string) error
}

// Outcome is the per-subscriber delivery result. Err is nil on success.
type Outcome struct {
	Subscriber Subscriber
	Err        error
}

// Delivered counts successful outcomes.
func Delivered(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Dispatcher fans a ChangeEvent out to subscribers concurrently, with an
// optional concurrency cap and a per-subscriber send timeout.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	sem      chan struct{} // nil = unlimited
	logger   *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets a custom logger for the dispatcher.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithMaxConcurrent caps concurrent Send calls. Zero or negative means
// unlimited (default).
func WithMaxConcurrent(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = make(chan struct{}, n)
		}
	}
}

// WithSendTimeout bounds each individual Send so a hung subscriber cannot
// delay cycle completion. Default: 10s.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// NewDispatcher creates a Dispatcher delivering through n.
func NewDispatcher(n Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier: n,
		timeout:  10 * time.Second,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Notify formats ev once and delivers it to every subscriber. It blocks until
// all deliveries have completed or timed out; outcomes are returned in
// subscriber order.
func (d *Dispatcher) Notify(ctx context.Context, ev rank.ChangeEvent, subscribers []Subscriber) []Outcome {
	text := FormatMessage(ev)
	outcomes := make([]Outcome, len(subscribers))

	var wg sync.WaitGroup
	for i, sub := range subscribers {
		wg.Add(1)
		go func(i int, sub Subscriber) {
			defer wg.Done()
			outcomes[i] = Outcome{Subscriber: sub, Err: d.send(ctx, sub, text)}
		}(i, sub)
	}
	wg.Wait()

	d.logger.Info("notify: fan-out complete",
		"subscribers", len(subscribers), "delivered", Delivered(outcomes))
	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, sub Subscriber, text string) error {
	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.notifier.Send(sendCtx, sub, text); err != nil {
		d.logger.Error("notify: delivery failed", "subscriber", sub, "error", err)
		return err
	}
	d.logger.Debug("notify: delivered", "subscriber", sub)
	return nil
}
