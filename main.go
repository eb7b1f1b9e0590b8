// Package main is the entry point for the Spennies personal finance Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"gitlab.com/yelinaung/spennies-bot/internal/bot"
	"gitlab.com/yelinaung/spennies-bot/internal/config"
	"gitlab.com/yelinaung/spennies-bot/internal/gateway"
	"gitlab.com/yelinaung/spennies-bot/internal/gemini"
	"gitlab.com/yelinaung/spennies-bot/internal/identity"
	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/refresh"
	"gitlab.com/yelinaung/spennies-bot/internal/session"
	"gitlab.com/yelinaung/spennies-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("spennies-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	logger.InitHashSalt()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTelExporter, telemetry.WithVersion(version))
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	store, err := localstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open local store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to close local store")
		}
	}()

	httpClient := gateway.NewHTTPClient(cfg.APITimeout)
	bus := refresh.New()

	sessionCfg := session.Config{
		Store:      store,
		APIBaseURL: cfg.APIBaseURL,
		HTTPClient: httpClient,
		Bus:        bus,
	}

	if cfg.AuthEnabled() {
		sessionCfg.Provider = identity.NewFirebase(cfg.FirebaseAPIKey, cfg.FirebaseAuthURL, cfg.FirebaseTokenURL, httpClient)
		logger.Log.Info().Msg("Online accounts enabled")
	} else {
		logger.Log.Info().Msg("No identity provider configured, running offline only")
	}

	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to create Gemini client, offline SMS parsing disabled")
		} else {
			sessionCfg.Parser = client
		}
	}

	telegramBot, err := bot.New(cfg, bot.Deps{
		Sessions: session.NewManager(sessionCfg),
		Bus:      bus,
		Store:    store,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)
}
