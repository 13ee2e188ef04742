// Command arenawatch watches a public leaderboard page and notifies
// subscribers when the top 3 changes.
//
// Usage:
//
//	arenawatch -config arenawatch.yaml              # one cycle (cron mode)
//	arenawatch -config arenawatch.yaml -every 30m   # built-in scheduler
//	arenawatch -config arenawatch.yaml -current     # print persisted top 3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/arenawatch/api"
	"github.com/hazyhaar/arenawatch/config"
	"github.com/hazyhaar/arenawatch/fetch"
	"github.com/hazyhaar/arenawatch/monitor"
	"github.com/hazyhaar/arenawatch/notify"
	"github.com/hazyhaar/arenawatch/state"
	"github.com/hazyhaar/arenawatch/subs"
)

func main() {
	configPath := flag.String("config", "", "path to arenawatch.yaml config file")
	every := flag.Duration("every", 0, "run continuously with this period (0 = single cycle)")
	current := flag.Bool("current", false, "print the persisted top 3 and exit")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *every, *current); err != nil {
		logger.Error("arenawatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, every time.Duration, current bool) error {
	if configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: arenawatch -config <file> [-every <dur>] [-current]")
		os.Exit(1)
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	db, err := state.Open(cfg.State.Path,
		state.WithMkdirAll(),
		state.WithSchema(subs.Schema))
	if err != nil {
		return err
	}
	defer db.Close()

	store := state.NewStore(db, state.WithLogger(logger))
	registry := subs.NewRegistry(db)

	cycle := monitor.New(
		monitor.Config{
			URL:          cfg.Page.URL,
			FetchTimeout: cfg.Page.FetchTimeout,
		},
		newFetcher(cfg, logger),
		store,
		registry,
		newDispatcher(cfg, logger),
		monitor.WithLogger(logger),
	)

	if current {
		return printCurrent(ctx, cycle)
	}

	if every <= 0 {
		_, err := cycle.Run(ctx)
		return err
	}

	return runLoop(ctx, logger, cfg, cycle, registry, store, every)
}

// runLoop is the built-in scheduler: one cycle per tick, never overlapping.
// A failed cycle is logged and waits for the next tick, like a cron re-run.
func runLoop(ctx context.Context, logger *slog.Logger, cfg *config.Config, cycle *monitor.Cycle, registry *subs.Registry, store *state.Store, every time.Duration) error {
	if cfg.API.Listen != "" {
		srv := &http.Server{
			Addr:              cfg.API.Listen,
			Handler:           api.NewServer(cycle, registry, store, api.WithLogger(logger)).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("arenawatch: api listening", "addr", cfg.API.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("arenawatch: api server failed", "error", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("arenawatch: scheduler started", "period", every)

	// First pass immediately; failures recover on the next tick.
	if _, err := cycle.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Warn("arenawatch: cycle failed, waiting for next tick", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("arenawatch: scheduler stopped")
			return nil
		case <-ticker.C:
			if _, err := cycle.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("arenawatch: cycle failed, waiting for next tick", "error", err)
			}
		}
	}
}

func newFetcher(cfg *config.Config, logger *slog.Logger) fetch.Fetcher {
	if cfg.Page.Mode == "http" {
		return fetch.NewHTTP(fetch.WithLogger(logger))
	}
	return fetch.NewBrowser(fetch.BrowserConfig{
		Remote:        cfg.Browser.Remote,
		Headful:       cfg.Browser.Mode == "headful",
		ClickSelector: cfg.Page.ClickSelector,
		WaitSelector:  cfg.Page.WaitSelector,
	}, logger)
}

func newDispatcher(cfg *config.Config, logger *slog.Logger) *notify.Dispatcher {
	var notifier notify.Notifier
	switch cfg.Notify.Platform {
	case "telegram":
		tg, err := notify.NewTelegram(notify.TelegramConfig{BotToken: cfg.Notify.Telegram.BotToken})
		if err != nil {
			// Validated at config load; reaching this is a programming error.
			panic(err)
		}
		notifier = tg
	case "webhook":
		notifier = notify.NewWebhook(notify.WebhookConfig{Secret: cfg.Notify.Webhook.Secret})
	default:
		notifier = discard{logger: logger}
	}

	return notify.NewDispatcher(notifier,
		notify.WithLogger(logger),
		notify.WithMaxConcurrent(cfg.Notify.MaxConcurrent),
		notify.WithSendTimeout(cfg.Notify.SendTimeout))
}

// discard is the notifier for observe-only deployments with no platform
// configured.
type discard struct {
	logger *slog.Logger
}

func (d discard) Send(_ context.Context, to notify.Subscriber, text string) error {
	d.logger.Info("notify: no platform configured, dropping message", "subscriber", to)
	return nil
}

func printCurrent(ctx context.Context, cycle *monitor.Cycle) error {
	snap, observedAt, err := cycle.CurrentTop3(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		fmt.Println("no observation yet")
		return nil
	}
	fmt.Printf("top 3 as of %s:\n", observedAt.Format(time.RFC3339))
	for _, e := range snap {
		if e.Score != nil {
			fmt.Printf("%d. %s — %g\n", e.Rank, e.Name, *e.Score)
		} else {
			fmt.Printf("%d. %s\n", e.Rank, e.Name)
		}
	}
	return nil
}
