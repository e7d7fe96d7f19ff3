package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/scenesave/internal/logging"
	"github.com/danmuck/scenesave/internal/storage"
	"github.com/pelletier/go-toml/v2"
)

// Config is the savectl configuration file.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

type StorageConfig struct {
	Backend     string `toml:"backend"`
	Dir         string `toml:"dir"`
	DSN         string `toml:"dsn"`
	Compression string `toml:"compression"`
	Level       int    `toml:"level"`
}

type ServerConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Storage: StorageConfig{
			Backend:     "file",
			Dir:         "saves",
			DSN:         "saves.db",
			Compression: "zstd",
		},
		Server: ServerConfig{
			Name:        "savectl",
			Addr:        ":9300",
			CorsOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadToml(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func Validate(cfg Config) error {
	if err := ValidateStorage(cfg.Storage); err != nil {
		return fmt.Errorf("storage invalid: %w", err)
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.Log.Level != "" {
		if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
			return fmt.Errorf("log level %q not recognized", cfg.Log.Level)
		}
	}
	return nil
}

func ValidateStorage(cfg StorageConfig) error {
	switch strings.TrimSpace(cfg.Backend) {
	case "file":
		if strings.TrimSpace(cfg.Dir) == "" {
			return fmt.Errorf("dir is required for the file backend")
		}
	case "sqlite":
		if strings.TrimSpace(cfg.DSN) == "" {
			return fmt.Errorf("dsn is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownStore, cfg.Backend)
	}
	if _, err := storage.NewCompressor(cfg.Compression, cfg.Level); err != nil {
		return err
	}
	return nil
}

// Marshal renders cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
