package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserConfig controls the headless-Chrome fetch path.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher for the duration of the fetch.
	Remote string

	// Headful disables headless mode. Some leaderboards serve a degraded page
	// to headless user agents even with stealth applied.
	Headful bool

	// ClickSelector, when set, is clicked after page load. Used for
	// leaderboards hidden behind a tab button.
	ClickSelector string

	// WaitSelector, when set, must appear before the DOM is serialized.
	// Point it at the leaderboard table so client-side rendering has finished.
	WaitSelector string
}

// Browser fetches pages through headless Chrome with stealth applied.
//
// Chrome is a disposable component: every Fetch launches (or connects),
// navigates, serializes, and tears down. The process never outlives the call,
// whatever the exit path.
type Browser struct {
	cfg    BrowserConfig
	logger *slog.Logger
}

// NewBrowser creates a Browser fetcher. A nil logger uses slog.Default.
func NewBrowser(cfg BrowserConfig, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{cfg: cfg, logger: logger}
}

// Fetch navigates to pageURL and returns the rendered DOM as HTML.
// JS dialogs (alerts, consent prompts) are auto-accepted.
func (b *Browser) Fetch(ctx context.Context, pageURL string) (string, error) {
	var lnch *launcher.Launcher
	wsURL := b.cfg.Remote

	if wsURL == "" {
		lnch = launcher.New().
			Headless(!b.cfg.Headful).
			Set("disable-blink-features", "AutomationControlled").
			Set("no-sandbox")
		u, err := lnch.Launch()
		if err != nil {
			return "", &Error{URL: pageURL, Cause: fmt.Errorf("launch chrome: %w", err)}
		}
		wsURL = u
		b.logger.Debug("fetch: launched local chrome", "url", wsURL)
	}

	browser := rod.New().ControlURL(wsURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("connect chrome: %w", err)}
	}
	defer func() {
		if err := browser.Close(); err != nil {
			b.logger.Warn("fetch: browser close failed", "error", err)
		}
		if lnch != nil {
			lnch.Cleanup()
		}
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("create page: %w", err)}
	}
	defer page.Close()

	// Auto-accept interstitial JS dialogs so a surprise alert cannot wedge
	// the navigation until the fetch deadline.
	go page.EachEvent(func(e *proto.PageJavascriptDialogOpening) {
		b.logger.Info("fetch: dismissing dialog", "message", e.Message)
		_ = proto.PageHandleJavaScriptDialog{Accept: true}.Call(page)
	})()

	if err := page.Navigate(pageURL); err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("navigate: %w", err)}
	}
	if err := page.WaitLoad(); err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("wait load: %w", err)}
	}

	if sel := b.cfg.ClickSelector; sel != "" {
		if el, err := page.Element(sel); err != nil {
			// The target may already be the default view.
			b.logger.Warn("fetch: click selector not found", "selector", sel, "error", err)
		} else if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			b.logger.Warn("fetch: click failed", "selector", sel, "error", err)
		}
	}

	if sel := b.cfg.WaitSelector; sel != "" {
		if _, err := page.Element(sel); err != nil {
			return "", &Error{URL: pageURL, Cause: fmt.Errorf("wait for %q: %w", sel, err)}
		}
	}

	res, err := page.Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("serialize dom: %w", err)}
	}

	html := res.Value.Str()
	b.logger.Debug("fetch: browser fetch complete", "url", pageURL, "size", len(html))
	return html, nil
}
