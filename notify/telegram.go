package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TelegramConfig configures the Telegram Bot API notifier.
type TelegramConfig struct {
	// BotToken is the bot API token from @BotFather.
	BotToken string
	// APIBase overrides the API endpoint. Default: https://api.telegram.org.
	APIBase string
}

// Telegram delivers messages through the Telegram Bot API. The subscriber is
// the chat ID.
type Telegram struct {
	client *resty.Client
	token  string
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("notify: telegram bot_token is required")
	}
	base := cfg.APIBase
	if base == "" {
		base = "https://api.telegram.org"
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(15 * time.Second)
	return &Telegram{client: client, token: cfg.BotToken}, nil
}

// Send posts a sendMessage call for the subscriber's chat.
func (t *Telegram) Send(ctx context.Context, to Subscriber, text string) error {
	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"chat_id": string(to), "text": text}).
		SetResult(&result).
		SetError(&result).
		Post("/bot" + t.token + "/sendMessage")
	if err != nil {
		return &SendError{Subscriber: to, Platform: "telegram", Cause: err}
	}
	if resp.IsError() || !result.OK {
		detail := result.Description
		if detail == "" {
			detail = resp.Status()
		}
		return &SendError{Subscriber: to, Platform: "telegram",
			Cause: fmt.Errorf("api: %s", detail)}
	}
	return nil
}
