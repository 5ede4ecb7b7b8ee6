package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/hitcapsule/internal/services"
	"github.com/desertthunder/hitcapsule/internal/shared"
	"github.com/urfave/cli/v3"
)

func rootCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "hitcapsule",
		Usage:    "Turn Billboard Hot 100 charts into Spotify playlists",
		Version:  "0.3.0",
		Commands: r.register(),
	}
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var spotify *services.SpotifyService
	if config.Credentials.Spotify.AccessToken != "" {
		if svc, err := services.NewSpotifyService(context.Background(), config.Credentials.Spotify, logger); err == nil {
			spotify = svc
		} else {
			logger.Warn("spotify credentials incomplete", "err", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotify,
		Logger:  logger,
	})

	app := rootCommand(runner)

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
