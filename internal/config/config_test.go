package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/scenesave/internal/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "sqlite"
dsn = "slots.db"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != "sqlite" || cfg.Storage.DSN != "slots.db" {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if cfg.Storage.Compression != "zstd" {
		t.Fatalf("expected default compression, got %q", cfg.Storage.Compression)
	}
	if cfg.Server.Addr != ":9300" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"backend":     "[storage]\nbackend = \"s3\"\n",
		"compression": "[storage]\ncompression = \"lz4\"\n",
		"addr":        "[server]\naddr = \"\"\n",
		"level":       "[log]\nlevel = \"loud\"\n",
		"dir":         "[storage]\ndir = \"\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestValidateStorageErrors(t *testing.T) {
	err := ValidateStorage(StorageConfig{Backend: "tape", Dir: "x"})
	if !errors.Is(err, storage.ErrUnknownStore) {
		t.Fatalf("expected ErrUnknownStore, got %v", err)
	}
	err = ValidateStorage(StorageConfig{Backend: "file", Dir: "x", Compression: "brotli"})
	if !errors.Is(err, storage.ErrUnknownCompression) {
		t.Fatalf("expected ErrUnknownCompression, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not exist, got %v", err)
	}
}

func TestTemplatesLoad(t *testing.T) {
	for _, kind := range []string{"file", "sqlite"} {
		path := filepath.Join(t.TempDir(), kind+".toml")
		if err := WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s template: %v", kind, err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("load %s template: %v", kind, err)
		}
		if cfg.Storage.Backend != kind {
			t.Fatalf("template %s has backend %q", kind, cfg.Storage.Backend)
		}
		if err := WriteTemplate(path, kind, false); err == nil {
			t.Fatalf("expected existing %s config to be kept", kind)
		}
	}
	if _, err := Template("ghost"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), "[storage]") {
		t.Fatalf("missing storage table:\n%s", data)
	}
	cfg, err := Load(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("load marshaled: %v", err)
	}
	if cfg.Server.Name != "savectl" || len(cfg.Server.CorsOrigins) != 1 {
		t.Fatalf("unexpected server: %+v", cfg.Server)
	}
}
