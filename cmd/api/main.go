package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-portal/internal/config"
	"property-portal/internal/interfaces/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	setupLogger(cfg)

	app, res, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}
	defer res.Close()

	if err := res.Rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	log.Info().Msg("Redis connected")

	if err := res.Showcase.Start(); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.ShowcaseRefreshSpec).Msg("showcase scheduler")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("listings_api", cfg.PropertiesAPIBaseURL).
		Msgf("Server running at http://localhost:%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
