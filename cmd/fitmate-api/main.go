package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"fitmate/internal/app"
	"fitmate/internal/auth"
	"fitmate/internal/config"
	"fitmate/internal/database"
	"fitmate/internal/llm"
	"fitmate/internal/planner"
	"fitmate/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Model provider
	client, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLMProvider).Msg("Failed to create model client")
	}
	defer client.Close()

	// 3. Database
	db, err := database.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	// 4. Services
	application := app.NewApp(db, planner.NewGenerator(client), cfg.PlanMaxRetries)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	var dataPath string
	if cfg.DatabaseDriver == config.DriverSQLite {
		dataPath = filepath.Dir(cfg.DatabaseURL)
	}

	srv := server.New(application, tokens, server.Options{
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
		GenerationTimeout: cfg.GenerationTimeout,
		DataPath:          dataPath,
	}).HTTPServer(":" + cfg.Port)

	// 5. Start Server with Graceful Shutdown
	go func() {
		log.Info().Str("port", cfg.Port).Str("provider", cfg.LLMProvider).Msg("fitmate API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}

func setupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
