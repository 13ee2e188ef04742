// Package config loads the arenawatch YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level service configuration.
type Config struct {
	Page    PageConfig    `yaml:"page"`
	Browser BrowserConfig `yaml:"browser"`
	State   StateConfig   `yaml:"state"`
	Notify  NotifyConfig  `yaml:"notify"`
	API     APIConfig     `yaml:"api"`
}

// PageConfig identifies the leaderboard page and how to acquire it.
type PageConfig struct {
	URL           string        `yaml:"url"`
	Mode          string        `yaml:"mode"` // browser | http
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	WaitSelector  string        `yaml:"wait_selector"`
	ClickSelector string        `yaml:"click_selector"`
}

// BrowserConfig controls the Chrome fetch path.
type BrowserConfig struct {
	Remote string `yaml:"remote"` // ws URL of external Chrome; empty = launch local
	Mode   string `yaml:"mode"`   // headless | headful
}

// StateConfig locates the SQLite database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// NotifyConfig selects and configures the notification platform.
type NotifyConfig struct {
	Platform string `yaml:"platform"` // telegram | webhook

	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`

	Webhook struct {
		Secret string `yaml:"secret"`
	} `yaml:"webhook"`

	SendTimeout   time.Duration `yaml:"send_timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// APIConfig controls the HTTP command surface. Empty Listen disables it.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// LoadFile reads a YAML configuration file, applies defaults, and validates.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Page.Mode == "" {
		c.Page.Mode = "browser"
	}
	if c.Page.FetchTimeout <= 0 {
		c.Page.FetchTimeout = 90 * time.Second
	}
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headless"
	}
	if c.State.Path == "" {
		c.State.Path = "data/arenawatch.db"
	}
	if c.Notify.SendTimeout <= 0 {
		c.Notify.SendTimeout = 10 * time.Second
	}
	if c.Notify.MaxConcurrent <= 0 {
		c.Notify.MaxConcurrent = 8
	}
}

// Validate reports configuration errors that would only surface mid-cycle.
func (c *Config) Validate() error {
	if c.Page.URL == "" {
		return fmt.Errorf("config: page.url is required")
	}
	switch c.Page.Mode {
	case "browser", "http":
	default:
		return fmt.Errorf("config: page.mode must be browser or http, got %q", c.Page.Mode)
	}
	switch c.Browser.Mode {
	case "headless", "headful":
	default:
		return fmt.Errorf("config: browser.mode must be headless or headful, got %q", c.Browser.Mode)
	}
	switch c.Notify.Platform {
	case "telegram":
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("config: notify.telegram.bot_token is required")
		}
	case "webhook", "":
		// Webhook needs no mandatory settings; empty platform disables
		// notifications (observe-only deployments).
	default:
		return fmt.Errorf("config: notify.platform must be telegram or webhook, got %q", c.Notify.Platform)
	}
	return nil
}
