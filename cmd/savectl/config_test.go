package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "savectl.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigOverlaysDefinedKeys(t *testing.T) {
	path := writeFile(t, `
[storage]
backend = "sqlite"
dsn = " slots.db "
compression = "GZIP"
level = 9

[server]
cors_origins = ["http://a.test", " ", "http://b.test"]
`)
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.DSN != "slots.db" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Storage.Compression != "gzip" || cfg.Storage.Level != 9 {
		t.Fatalf("unexpected compression: %q level %d", cfg.Storage.Compression, cfg.Storage.Level)
	}
	if cfg.Storage.Dir != "saves" {
		t.Fatalf("expected default dir, got %q", cfg.Storage.Dir)
	}
	if cfg.Server.Addr != ":9300" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if len(cfg.Server.CorsOrigins) != 2 || cfg.Server.CorsOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %+v", cfg.Server.CorsOrigins)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing config should default: %v", err)
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("unexpected backend: %q", cfg.Storage.Backend)
	}
	if _, err := loadConfig(path, true); err == nil {
		t.Fatalf("expected explicit missing config to fail")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "[storage]\nbucket = \"saves\"\n")
	_, err := loadConfig(path, true)
	if err == nil || !strings.Contains(err.Error(), "storage.bucket") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoadConfigValidates(t *testing.T) {
	path := writeFile(t, "[storage]\nbackend = \"sqlite\"\ndsn = \"\"\n")
	if _, err := loadConfig(path, true); err == nil {
		t.Fatalf("expected empty dsn to be rejected")
	}
}
