package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	// Secret, when set, signs each payload with HMAC-SHA256; the hex digest
	// is sent in the X-Signature-256 header, GitHub-style.
	Secret string
}

// Webhook delivers messages as JSON POSTs. The subscriber is the target URL.
type Webhook struct {
	client *http.Client
	secret string
}

// WebhookOption configures a Webhook notifier.
type WebhookOption func(*Webhook)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *Webhook) { w.client = c }
}

// NewWebhook creates a Webhook notifier.
func NewWebhook(cfg WebhookConfig, opts ...WebhookOption) *Webhook {
	w := &Webhook{
		client: &http.Client{Timeout: 15 * time.Second},
		secret: cfg.Secret,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// webhookPayload is the POST body.
type webhookPayload struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Send POSTs the message to the subscriber URL.
func (w *Webhook) Send(ctx context.Context, to Subscriber, text string) error {
	body, err := json.Marshal(webhookPayload{Text: text, At: time.Now().UTC()})
	if err != nil {
		return &SendError{Subscriber: to, Platform: "webhook",
			Cause: fmt.Errorf("marshal payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, string(to), bytes.NewReader(body))
	if err != nil {
		return &SendError{Subscriber: to, Platform: "webhook",
			Cause: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		req.Header.Set("X-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return &SendError{Subscriber: to, Platform: "webhook", Cause: err}
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &SendError{Subscriber: to, Platform: "webhook",
			Cause: fmt.Errorf("endpoint returned %d", resp.StatusCode)}
	}
	return nil
}
