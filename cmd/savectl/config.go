package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/scenesave/internal/config"
)

const defaultConfigPath = "savectl.toml"

type fileStorage struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	DSN         string `toml:"dsn"`
	Compression string `toml:"compression"`
	Level       int    `toml:"level"`
}

type fileServer struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type fileConfig struct {
	Storage fileStorage `toml:"storage"`
	Server  fileServer  `toml:"server"`
	Log     struct {
		Level string `toml:"level"`
	} `toml:"log"`
}

// loadConfig overlays the keys set in path onto config.Default. A missing
// file at the default path yields the defaults; an explicit path must exist.
func loadConfig(path string, explicit bool) (config.Config, error) {
	cfg := config.Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return config.Config{}, fmt.Errorf("load savectl config: %w", err)
	}

	if meta.IsDefined("storage", "backend") {
		cfg.Storage.Backend = strings.TrimSpace(raw.Storage.Backend)
	}
	if meta.IsDefined("storage", "dir") {
		cfg.Storage.Dir = strings.TrimSpace(raw.Storage.Dir)
	}
	if meta.IsDefined("storage", "dsn") {
		cfg.Storage.DSN = strings.TrimSpace(raw.Storage.DSN)
	}
	if meta.IsDefined("storage", "compression") {
		cfg.Storage.Compression = strings.ToLower(strings.TrimSpace(raw.Storage.Compression))
	}
	if meta.IsDefined("storage", "level") {
		cfg.Storage.Level = raw.Storage.Level
	}

	if meta.IsDefined("server", "name") {
		cfg.Server.Name = strings.TrimSpace(raw.Server.Name)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeOrigins(raw.Server.CorsOrigins)
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return config.Config{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
