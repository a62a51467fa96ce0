package entsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entsync.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
base_url: https://erp.example.com/api
token: tok123
storage_dir: /var/lib/entsync
redis_addr: localhost:6379
ttl: 10m
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "https://erp.example.com/api" || cfg.Token != "tok123" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.StorageDir != "/var/lib/entsync" || cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if time.Duration(cfg.TTL) != 10*time.Minute {
		t.Fatalf("TTL = %v", time.Duration(cfg.TTL))
	}
}

func TestLoadConfigDefaultsStorageDir(t *testing.T) {
	path := writeConfig(t, "base_url: https://erp.example.com/api\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StorageDir != ".entsync" {
		t.Fatalf("StorageDir = %q", cfg.StorageDir)
	}
	if time.Duration(cfg.TTL) != 0 {
		t.Fatalf("TTL should stay zero, got %v", time.Duration(cfg.TTL))
	}
}

func TestLoadConfigRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, "token: tok123\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for missing base_url")
	}
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "base_url: https://x\nttl: soon\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for bad duration")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
