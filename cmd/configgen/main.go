package main

import (
	"flag"

	"github.com/danmuck/scenesave/internal/config"
	"github.com/danmuck/scenesave/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultPath = "savectl.toml"

func main() {
	logging.ConfigureRuntime("configgen")

	kind := flag.String("kind", "file", "config kind: file|sqlite")
	output := flag.String("output", defaultPath, "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", defaultPath, "config path for validation")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			log.Fatal().Err(err).Str("path", *input).Msg("config invalid")
		}
		log.Info().
			Str("path", *input).
			Str("backend", cfg.Storage.Backend).
			Str("compression", cfg.Storage.Compression).
			Msg("config validated")
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal().Err(err).Str("path", *output).Msg("write config template")
	}
	log.Info().Str("kind", *kind).Str("path", *output).Msg("wrote config template")
}
