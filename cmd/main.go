package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if v := os.Getenv("FLIX_CONFIG"); v != "" {
		configPath = v
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	if err := config.ApplyEnv(".env"); err != nil {
		logger.Fatalf("invalid environment: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runnerOpts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	db, err := shared.OpenDatabase(config.Database)
	if err != nil {
		logger.Warn("session storage unavailable, continuing without persistence", "path", config.Database.Path, "error", err)
	} else {
		defer db.Close()
		runnerOpts.DB = db
	}

	runner := NewRunner(runnerOpts)

	app := &cli.Command{
		Name:     "flix",
		Usage:    "Browse the myFlix movie catalog and manage your favorites",
		Version:  "0.3.0",
		Flags:    globalFlags(),
		Before:   runner.Before,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
