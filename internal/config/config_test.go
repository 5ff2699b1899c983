package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if len(cfg.Filter.Keywords) == 0 {
		t.Error("expected example keywords to be populated")
	}
	if cfg.Naver.Display != 10 {
		t.Errorf("expected display 10, got %d", cfg.Naver.Display)
	}
	if cfg.Fetch.Pace.Std() != 200*time.Millisecond {
		t.Errorf("expected pace 200ms, got %v", cfg.Fetch.Pace.Std())
	}
	if cfg.Fetch.Timeout.Std() != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Fetch.Timeout.Std())
	}
	if cfg.Delivery.RecordPolicy != "best-effort" {
		t.Errorf("expected best-effort policy, got %q", cfg.Delivery.RecordPolicy)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
filter:
  keywords: [뉴스]
telegram:
  chat_id: "123"
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if len(cfg.Filter.Keywords) != 1 || cfg.Filter.Keywords[0] != "뉴스" {
		t.Errorf("unexpected keywords %v", cfg.Filter.Keywords)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Naver.ClientIDEnv != "NAVER_CLIENT_ID" {
		t.Errorf("expected default client_id_env, got %q", cfg.Naver.ClientIDEnv)
	}
	if cfg.Fetch.Pace.Std() != 200*time.Millisecond {
		t.Errorf("expected default pace, got %v", cfg.Fetch.Pace.Std())
	}
}

func TestParseDurations(t *testing.T) {
	cfg, err := parse([]byte(`
fetch:
  pace: 1s
  timeout: 30s
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fetch.Pace.Std() != time.Second {
		t.Errorf("expected 1s pace, got %v", cfg.Fetch.Pace.Std())
	}
	if cfg.Fetch.Timeout.Std() != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Fetch.Timeout.Std())
	}

	if _, err := parse([]byte("fetch:\n  pace: not-a-duration\n")); err == nil {
		t.Error("expected error for malformed duration")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"display too large", "naver:\n  display: 500\n"},
		{"display zero", "naver:\n  display: 0\n"},
		{"bad record policy", "delivery:\n  record_policy: maybe\n"},
		{"feed without url", "sources:\n  feeds:\n    - name: nameless\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.data)); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Naver.Display != 10 {
		t.Errorf("expected display 10, got %d", cfg.Naver.Display)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveConfigPathExplicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	got, err := ResolveConfigPath(path)
	if err != nil {
		t.Fatalf("ResolveConfigPath: %v", err)
	}
	if got != path {
		t.Errorf("expected %q, got %q", path, got)
	}

	if _, err := ResolveConfigPath(filepath.Join(dir, "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestNaverCredentials(t *testing.T) {
	cfg, _ := parse([]byte(`
naver:
  client_id_env: TEST_NW_ID
  client_secret_env: TEST_NW_SECRET
`))

	if _, _, err := cfg.NaverCredentials(); err == nil {
		t.Error("expected error with unset credentials")
	}

	t.Setenv("TEST_NW_ID", "id")
	t.Setenv("TEST_NW_SECRET", "secret")
	id, secret, err := cfg.NaverCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "id" || secret != "secret" {
		t.Errorf("unexpected credentials %q/%q", id, secret)
	}
}

func TestTelegramCredentials(t *testing.T) {
	cfg, _ := parse([]byte(`
telegram:
  bot_token_env: TEST_NW_BOT
  chat_id: "42"
`))

	if _, _, err := cfg.TelegramCredentials(); err == nil {
		t.Error("expected error with unset token")
	}

	t.Setenv("TEST_NW_BOT", "token")
	token, chatID, err := cfg.TelegramCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token" || chatID != "42" {
		t.Errorf("unexpected credentials %q/%q", token, chatID)
	}

	noChat, _ := parse([]byte("telegram:\n  bot_token_env: TEST_NW_BOT\n"))
	if _, _, err := noChat.TelegramCredentials(); err == nil {
		t.Error("expected error with empty chat_id")
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	if cfg.GetDataDir() == "" {
		t.Error("expected XDG default data dir")
	}

	cfg.Output.DataDir = "/tmp/custom"
	if cfg.GetDataDir() != "/tmp/custom" {
		t.Errorf("expected configured dir, got %q", cfg.GetDataDir())
	}
}
