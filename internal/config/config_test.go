package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  base_url: https://kds.example.com
  bypass_token: secret
  location_id: loc-1
store:
  mode: explicit-status
  poll_interval: 2s
database:
  enabled: true
  host: db
  port: 5433
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.BaseURL != "https://kds.example.com" || cfg.Gateway.LocationID != "loc-1" {
		t.Fatalf("gateway = %+v", cfg.Gateway)
	}
	if cfg.Gateway.Timeout != 10*time.Second {
		t.Fatalf("timeout default lost: %v", cfg.Gateway.Timeout)
	}
	if cfg.Store.Mode != ModeExplicitStatus || cfg.Store.PollInterval != 2*time.Second {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if !cfg.Database.Enabled || cfg.Database.Port != 5433 {
		t.Fatalf("database = %+v", cfg.Database)
	}
	if cfg.RabbitMQ.Port != 5672 {
		t.Fatalf("rabbitmq default lost: %+v", cfg.RabbitMQ)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Mode != ModeSinglePath || cfg.Store.PollInterval != 5*time.Second {
		t.Fatalf("store defaults = %+v", cfg.Store)
	}
}

func TestLoadHonorsEnv(t *testing.T) {
	t.Setenv("KDS_BASE_URL", "http://override")
	t.Setenv("KDS_POLL_INTERVAL", "750ms")
	t.Setenv("KDS_MODE", "explicit-status")

	cfg, err := Load(writeConfig(t, "store:\n  mode: single-path\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.BaseURL != "http://override" {
		t.Fatalf("base url = %s", cfg.Gateway.BaseURL)
	}
	if cfg.Store.PollInterval != 750*time.Millisecond || cfg.Store.Mode != ModeExplicitStatus {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	if _, err := Load(writeConfig(t, "store:\n  mode: freestyle\n")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
