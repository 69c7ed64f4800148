// Package main is the entry point for the fxcalc position sizing service.
// It serves forex position-size calculations backed by a TTL-cached exchange
// rate table, with hardcoded fallback rates when the provider is down.
//
// Startup sequence:
//  1. Load configuration from environment variables (.env supported)
//  2. Initialize structured logging
//  3. Open the cache and analytics databases and run migrations
//  4. Wire the rate pipeline: provider client -> persistent snapshot store
//  5. Register background jobs (rate refresh, data cleanup)
//  6. Start the HTTP server and block until SIGINT/SIGTERM
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/fxcalc/internal/clientdata"
	"github.com/aristath/fxcalc/internal/clients/exchangerate"
	"github.com/aristath/fxcalc/internal/config"
	"github.com/aristath/fxcalc/internal/database"
	"github.com/aristath/fxcalc/internal/modules/analytics"
	analyticshandlers "github.com/aristath/fxcalc/internal/modules/analytics/handlers"
	"github.com/aristath/fxcalc/internal/modules/calculator"
	calculatorhandlers "github.com/aristath/fxcalc/internal/modules/calculator/handlers"
	rateshandlers "github.com/aristath/fxcalc/internal/modules/rates/handlers"
	"github.com/aristath/fxcalc/internal/rates"
	"github.com/aristath/fxcalc/internal/scheduler"
	"github.com/aristath/fxcalc/internal/server"
	"github.com/aristath/fxcalc/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting fxcalc")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Cache database: rate snapshots and daily rate history.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "clientdata",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	if err := cacheDB.Migrate(clientdata.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	// Analytics database: usage events, kept separate so pruning or loss
	// never touches the rate cache.
	analyticsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "analytics.db"),
		Profile: database.ProfileStandard,
		Name:    "analytics",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open analytics database")
	}
	defer analyticsDB.Close()

	if err := analyticsDB.Migrate(analytics.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate analytics database")
	}

	clientDataRepo := clientdata.NewRepository(cacheDB.Conn())
	analyticsService := analytics.NewService(analytics.NewRepository(analyticsDB.Conn(), log), log)

	// Rate provider client. A missing API key is not fatal: the service
	// runs in permanent fallback-only mode.
	var fetcher rates.Fetcher
	if cfg.ExchangeRateAPIKey != "" {
		client, err := exchangerate.NewClient(cfg.ExchangeRateAPIKey, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create exchange rate client")
		}
		fetcher = client
	}

	rateService := rates.NewService(
		fetcher,
		rates.NewPersistentStore(clientDataRepo, log),
		clientDataRepo,
		analyticsService,
		rates.Options{
			APITTL:      cfg.RatesTTL,
			FallbackTTL: cfg.FallbackTTL,
		},
		log,
	)

	calculatorService := calculator.NewService(rateService, log)

	// Background jobs: refresh ahead of snapshot expiry, prune expired
	// cache rows and old analytics events daily.
	sched := scheduler.New(log)
	refreshSchedule := fmt.Sprintf("@every %s", cfg.RefreshInterval)
	if err := sched.AddJob(refreshSchedule, scheduler.NewRefreshRatesJob(rateService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rate refresh job")
	}
	if err := sched.AddJob("@daily", clientdata.NewCleanupJob(clientDataRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}
	if err := sched.AddJob("@daily", analytics.NewPruneJob(analyticsService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register analytics prune job")
	}
	sched.Start()
	defer sched.Stop()

	// Warm the cache before accepting traffic. Falls back internally, so
	// the first calculation never waits on the provider.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
	snap := rateService.GetSnapshot(warmCtx)
	warmCancel()
	log.Info().
		Str("origin", string(snap.Origin)).
		Time("expires_at", snap.ExpiresAt).
		Msg("Rate cache warmed")

	srv := server.New(server.Config{
		Log:               log,
		Cfg:               cfg,
		CacheDB:           cacheDB,
		RateService:       rateService,
		CalculatorHandler: calculatorhandlers.NewHandler(calculatorService, analyticsService, log),
		RatesHandler:      rateshandlers.NewHandler(rateService, cfg.CronSecret, log),
		AnalyticsHandler:  analyticshandlers.NewHandler(analyticsService, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
