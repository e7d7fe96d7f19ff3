package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "file", "":
		return fileTemplate, nil
	case "sqlite":
		return sqliteTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const fileTemplate = `[storage]
backend = "file"
dir = "saves"
compression = "zstd"
level = 0

[server]
name = "savectl"
addr = ":9300"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"
`

const sqliteTemplate = `[storage]
backend = "sqlite"
dsn = "saves.db"
compression = "gzip"
level = 6

[server]
name = "savectl"
addr = ":9300"
cors_origins = ["http://localhost:3000"]

[log]
level = "info"
`
