package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "arenawatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
page:
  url: https://example.com/leaderboard
  mode: http
  fetch_timeout: 30s
state:
  path: /tmp/test.db
notify:
  platform: telegram
  telegram:
    bot_token: 123:abc
  max_concurrent: 4
api:
  listen: 127.0.0.1:8080
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Page.URL != "https://example.com/leaderboard" {
		t.Fatalf("url = %q", cfg.Page.URL)
	}
	if cfg.Page.Mode != "http" || cfg.Page.FetchTimeout != 30*time.Second {
		t.Fatalf("page config: %+v", cfg.Page)
	}
	if cfg.State.Path != "/tmp/test.db" {
		t.Fatalf("state path = %q", cfg.State.Path)
	}
	if cfg.Notify.Platform != "telegram" || cfg.Notify.Telegram.BotToken != "123:abc" {
		t.Fatalf("notify config: %+v", cfg.Notify)
	}
	if cfg.Notify.MaxConcurrent != 4 {
		t.Fatalf("max_concurrent = %d", cfg.Notify.MaxConcurrent)
	}
	if cfg.API.Listen != "127.0.0.1:8080" {
		t.Fatalf("api listen = %q", cfg.API.Listen)
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	path := writeConfig(t, `
page:
  url: https://example.com/leaderboard
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Page.Mode != "browser" {
		t.Fatalf("default page.mode = %q", cfg.Page.Mode)
	}
	if cfg.Page.FetchTimeout != 90*time.Second {
		t.Fatalf("default fetch_timeout = %v", cfg.Page.FetchTimeout)
	}
	if cfg.Browser.Mode != "headless" {
		t.Fatalf("default browser.mode = %q", cfg.Browser.Mode)
	}
	if cfg.State.Path != "data/arenawatch.db" {
		t.Fatalf("default state.path = %q", cfg.State.Path)
	}
	if cfg.Notify.SendTimeout != 10*time.Second || cfg.Notify.MaxConcurrent != 8 {
		t.Fatalf("notify defaults: %+v", cfg.Notify)
	}
	// Empty platform means observe-only; that is valid.
	if cfg.Notify.Platform != "" {
		t.Fatalf("platform = %q", cfg.Notify.Platform)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing url",
			yaml:    "state:\n  path: /tmp/x.db\n",
			wantErr: "page.url",
		},
		{
			name:    "bad page mode",
			yaml:    "page:\n  url: https://x\n  mode: carrier-pigeon\n",
			wantErr: "page.mode",
		},
		{
			name:    "bad browser mode",
			yaml:    "page:\n  url: https://x\nbrowser:\n  mode: invisible\n",
			wantErr: "browser.mode",
		},
		{
			name:    "telegram without token",
			yaml:    "page:\n  url: https://x\nnotify:\n  platform: telegram\n",
			wantErr: "bot_token",
		},
		{
			name:    "unknown platform",
			yaml:    "page:\n  url: https://x\nnotify:\n  platform: carrier-pigeon\n",
			wantErr: "notify.platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
