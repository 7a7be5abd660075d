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
	path := filepath.Join(t.TempDir(), "grambridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  api_id: 12345
  api_hash: abcdef0123456789
`

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Telegram.AppID != 12345 {
		t.Errorf("api_id = %d, want 12345", cfg.Telegram.AppID)
	}
	if cfg.Server.Bind != "127.0.0.1:8081" {
		t.Errorf("bind default = %q", cfg.Server.Bind)
	}
	if cfg.Webhook.Workers != 3 {
		t.Errorf("webhook workers default = %d, want 3", cfg.Webhook.Workers)
	}
	if cfg.Webhook.Timeout != 3*time.Second {
		t.Errorf("webhook timeout default = %v, want 3s", cfg.Webhook.Timeout)
	}
	if cfg.Webhook.QueueCapacity != 1024 {
		t.Errorf("queue capacity default = %d, want 1024", cfg.Webhook.QueueCapacity)
	}
	if cfg.Server.PollMaxTimeout != 50*time.Second {
		t.Errorf("poll max timeout default = %v, want 50s", cfg.Server.PollMaxTimeout)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_API_HASH", "fromenv")

	path := writeConfig(t, `
telegram:
  api_id: ${TEST_API_ID:-777}
  api_hash: ${TEST_API_HASH}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.AppID != 777 {
		t.Errorf("api_id = %d, want default 777", cfg.Telegram.AppID)
	}
	if cfg.Telegram.AppHash != "fromenv" {
		t.Errorf("api_hash = %q, want fromenv", cfg.Telegram.AppHash)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	path := writeConfig(t, `
telegram:
  api_id: 1
  api_hash: ${DEFINITELY_NOT_SET_VAR}
`)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "unresolved variable") {
		t.Errorf("err = %v, want unresolved variable error", err)
	}
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("want error for missing credentials")
	}
	if !strings.Contains(err.Error(), "api_id") || !strings.Contains(err.Error(), "api_hash") {
		t.Errorf("err = %v, want both credential errors", err)
	}
}

func TestValidate_PollTimeoutBelowWriteTimeout(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Telegram = TelegramConfig{AppID: 1, AppHash: "h"}
	cfg.Defaults()
	cfg.Server.PollMaxTimeout = cfg.Server.WriteTimeout

	if err := cfg.Validate(); err == nil {
		t.Error("want error when poll timeout reaches write timeout")
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.Telegram = TelegramConfig{AppID: 1, AppHash: "h"}
	cfg.Defaults()
	cfg.Log.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Error("want error for unknown log level")
	}
}
