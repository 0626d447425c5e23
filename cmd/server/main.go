package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/splitledger/splitledger/internal/adapter/http"
	"github.com/splitledger/splitledger/internal/adapter/http/handler"
	"github.com/splitledger/splitledger/internal/adapter/http/middleware"
	postgresRepo "github.com/splitledger/splitledger/internal/adapter/repository/postgres"
	redisRepo "github.com/splitledger/splitledger/internal/adapter/repository/redis"
	"github.com/splitledger/splitledger/internal/classify"
	"github.com/splitledger/splitledger/internal/infrastructure/config"
	"github.com/splitledger/splitledger/internal/infrastructure/logger"
	"github.com/splitledger/splitledger/internal/infrastructure/metrics"
	"github.com/splitledger/splitledger/internal/infrastructure/postgres"
	"github.com/splitledger/splitledger/internal/infrastructure/redis"
	"github.com/splitledger/splitledger/internal/usecase"
)

func main() {
	// Bootstrap logger until configuration is loaded
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.SetGlobalLevel(log.Logger.GetLevel())

	runDefaults, err := cfg.RunDefaults()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid reconciliation policy configuration")
	}

	rules := classify.DefaultRules()
	if cfg.RulesPath != "" {
		rules, err = classify.LoadRules(cfg.RulesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("failed to load classification rules")
		}
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	// Initialize repositories
	retrier := postgresRepo.NewRetrier(log.Logger)
	archive := postgresRepo.NewRunArchive(pool, retrier)
	idGen := postgresRepo.NewULIDGenerator()
	reviewStore := redisRepo.NewReviewStore(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	// Initialize use cases
	reconcileUC := usecase.NewReconcileUseCase(idGen, archive, rules, log.Logger, m)
	exportUC := usecase.NewExportUseCase(reviewStore, log.Logger, m)

	// Initialize handlers
	runHandler := handler.NewRunHandler(reconcileUC, exportUC, runDefaults)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		RunHandler:       runHandler,
		HealthHandler:    healthHandler,
		Logger:           log.Logger,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      middleware.NewRateLimiter(50, 100),
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
