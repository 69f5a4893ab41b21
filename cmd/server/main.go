// Command server boots the warranty and claims API.
//
// Startup order:
//  1. Load .env (best effort) and the validated environment config.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Open SQLite, migrate the schema, and attach query tracing.
//  4. Initialize OpenTelemetry (no-op unless OTEL_ENABLED).
//  5. Build the Gin engine with the full middleware chain and routes.
//  6. Start the background expiration sweep (unless disabled).
//  7. Serve until SIGINT/SIGTERM, then drain gracefully.
//
// @title          Warranty & Claims API
// @version        1.0
// @description    Warranty lifecycle engine: coverage registration, expiration evaluation, claim workflow, and lookups.
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-warranty-backend/docs"
	"github.com/tbourn/go-warranty-backend/internal/config"
	httpapi "github.com/tbourn/go-warranty-backend/internal/http"
	"github.com/tbourn/go-warranty-backend/internal/observability"
	"github.com/tbourn/go-warranty-backend/internal/repo"
	"github.com/tbourn/go-warranty-backend/internal/services"
	"github.com/tbourn/go-warranty-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate schema")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Fatal().Err(err).Msg("enable query tracing")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("setup opentelemetry")
	}

	engine := gin.New()
	httpapi.RegisterRoutes(engine, db, cfg)

	// Background expiration sweep.
	if cfg.Sweep.Enabled {
		sweep := &services.SweepService{
			DB:         db,
			BatchSize:  cfg.Sweep.BatchSize,
			MaxRetries: cfg.WriteMaxRetries,
		}
		go sweep.Loop(ctx, cfg.Sweep.Interval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error().Err(err).Msg("server drain failed")
	}
	if err := shutdownOTel(drainCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("server stopped")
}
