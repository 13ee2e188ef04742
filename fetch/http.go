package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes caps the response read to prevent runaway downloads.
const maxBodyBytes = 10 << 20

// HTTP is the no-browser fetch path: a single GET, no JS. It works for
// leaderboards that render server-side and is far cheaper than Chrome.
type HTTP struct {
	client *http.Client
	ua     string
	logger *slog.Logger
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithClient sets a custom HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(f *HTTP) { f.client = c }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTP) { f.ua = ua }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(f *HTTP) { f.logger = l }
}

// NewHTTP creates an HTTP fetcher with sensible defaults. Timeouts come from
// the caller's context, not the client, so one budget covers the whole fetch.
func NewHTTP(opts ...HTTPOption) *HTTP {
	f := &HTTP{
		client: http.DefaultClient,
		ua:     "Mozilla/5.0 (compatible; arenawatch/1.0)",
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch GETs pageURL and returns the body as HTML.
func (f *HTTP) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &Error{URL: pageURL, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("status %s", resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{URL: pageURL, Cause: fmt.Errorf("read body: %w", err)}
	}

	f.logger.Debug("fetch: http fetch complete",
		"url", pageURL, "status", resp.StatusCode, "size", len(body))
	return string(body), nil
}
