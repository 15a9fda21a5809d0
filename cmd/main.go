package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vibesync/internal/services"
	"github.com/desertthunder/vibesync/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	if err := shared.LoadEnv(); err != nil {
		logger.Warn("failed to load .env", "error", err)
	}

	configPath := defaultConfigPath
	if p, ok := os.LookupEnv("VIBESYNC_CONFIG"); ok && p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(os.LookupEnv)
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	if err := config.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Lyrics:     services.NewGeniusService(config.Lyrics, config.Credentials.Genius.AccessToken, logger),
		Generator:  services.NewOpenAIService(config.LLM),
		Embedder:   services.NewOllamaEmbedder(config.Embedding),
		Logger:     logger,
	})
	defer runner.Close()

	if spotify, err := newSpotify(context.Background(), config, runner, logger); err == nil {
		runner.spotify = spotify
	} else {
		logger.Debug("spotify unavailable", "error", err)
	}

	app := &cli.Command{
		Name:     "vibesync",
		Usage:    "Index your Spotify liked songs by vibe and search them in plain language",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			return
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}

// newSpotify builds the Spotify client, restoring the cached session and persisting refreshed tokens.
func newSpotify(ctx context.Context, config *shared.Config, runner *Runner, logger *log.Logger) (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
	if err != nil {
		return nil, err
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := runner.saveTokens(token); err != nil {
			logger.Warn("failed to persist refreshed token", "error", err)
		}
	})

	if token := config.Credentials.Spotify.Token(); token != nil {
		if err := svc.OAuthenticate(ctx, token); err != nil {
			logger.Warn("failed to restore spotify session", "error", err)
		}
	}
	return svc, nil
}
