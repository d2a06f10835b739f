package main

import (
	"fmt"
	"os"

	"marketsynth/internal/cli"
	"marketsynth/internal/config"
	"marketsynth/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("MARKETSYNTH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    cfg.Logging.Console,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	})

	if err := cli.NewRootCmd(cfg, logger).Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
