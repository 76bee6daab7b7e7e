package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/config"
	"github.com/ihubtech/testportal-backend/internal/database"
	"github.com/ihubtech/testportal-backend/internal/handler"
	"github.com/ihubtech/testportal-backend/internal/logger"
	"github.com/ihubtech/testportal-backend/internal/repository"
	"github.com/ihubtech/testportal-backend/internal/router"
	"github.com/ihubtech/testportal-backend/internal/service"
	"github.com/ihubtech/testportal-backend/internal/token"
	"github.com/ihubtech/testportal-backend/internal/validator"
	"github.com/ihubtech/testportal-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Test Portal Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	retry := repository.RetryPolicy{
		Attempts: cfg.StoreRetryAttempts,
		Backoff:  cfg.StoreRetryBackoff,
	}
	accountRepo := repository.NewAccountRepository(pool)
	contestRepo := repository.NewContestRepository(pool, retry)
	reportRepo := repository.NewReportRepository(pool, retry)

	// ─── Initialize Services ──────────────────────────────────────────
	tokens := token.NewService(cfg)
	startClock := service.NewRedisStartClock(rdb)

	authService := service.NewAuthService(cfg, accountRepo, tokens, rdb, log)
	contestService := service.NewContestService(contestRepo, tokens, log)
	paperService := service.NewPaperService(contestRepo, startClock, log)
	scoringService := service.NewScoringService()
	reportService := service.NewReportService(contestRepo, reportRepo, scoringService, startClock, log)

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	proctorWorker := worker.NewProctorWorker(rdb, reportRepo, log)
	go proctorWorker.Start(workerCtx)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Contest:  handler.NewContestHandler(contestService, reportService),
		Delivery: handler.NewDeliveryHandler(contestService, paperService, reportService),
		WS:       handler.NewWSHandler(proctorWorker, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokens, authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow the worker to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
