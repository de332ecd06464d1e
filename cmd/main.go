package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/earlybird-mp3/onthespot-scdl/internal/repositories"
	"github.com/earlybird-mp3/onthespot-scdl/internal/services"
	"github.com/earlybird-mp3/onthespot-scdl/internal/session"
	"github.com/earlybird-mp3/onthespot-scdl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	if os.Getenv("SCDL_DEBUG") != "" {
		shared.SetLogLevel(logger, log.DebugLevel)
	}

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	var cache *repositories.ResponseCache
	if config.Database.Path != "" {
		if db, err := shared.NewDatabase(config.Database.Path); err == nil {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
			if err := shared.RunMigrations(db); err == nil {
				cache = repositories.NewResponseCache(db)
			} else {
				logger.Warn("response cache unavailable", "error", err)
			}
		}
	}

	var svc *services.SoundCloudService
	if config.Credentials.SoundCloud.ClientID != "" {
		token := session.NewToken(config.Credentials.SoundCloud)
		opts := services.SoundCloudOpts{RateLimit: config.Download.RateLimit}
		if cache != nil {
			opts.Cache = cache
		}
		svc = services.NewSoundCloudService(token, opts)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Service:    svc,
		Cache:      cache,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "scdl",
		Usage:    "Resolve SoundCloud tracks, streams & metadata",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
