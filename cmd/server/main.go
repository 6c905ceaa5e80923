package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	httpAdapter "github.com/iho/gobank/internal/adapter/http"
	"github.com/iho/gobank/internal/adapter/http/handler"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/gobank/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gobank/internal/adapter/repository/redis"
	"github.com/iho/gobank/internal/infrastructure/config"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/infrastructure/notifier"
	"github.com/iho/gobank/internal/infrastructure/postgres"
	"github.com/iho/gobank/internal/infrastructure/reconciler"
	"github.com/iho/gobank/internal/infrastructure/redis"
	"github.com/iho/gobank/internal/infrastructure/secret"
	"github.com/iho/gobank/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	defaultSeed, err := decimal.NewFromString(cfg.DefaultSeedBalance)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.DefaultSeedBalance).Msg("invalid default seed balance")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend
	var (
		accountStore usecase.AccountStore
		ledgerStore  usecase.Ledger
		pool         *pgxpool.Pool
	)

	switch cfg.StoreBackend {
	case "postgres":
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}

		pool, err = postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		accountStore = postgresRepo.NewAccountStore(pool)
		ledgerStore = postgresRepo.NewLedgerStore(pool)
	case "memory":
		accountStore = memory.NewAccountStore()
		ledgerStore = memory.NewLedgerStore()
		log.Info().Msg("using in-memory storage")
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	// Redis is optional; without it idempotency and secret-attempt limiting
	// are disabled.
	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
		secretLimiter    usecase.SecretAttemptLimiter
	)

	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		secretLimiter = redisRepo.NewSecretAttemptLimiter(redisClient, cfg.SecretMaxFailures, cfg.SecretFailureWindow)
	}

	// Shared collaborators
	m := metrics.New()
	hasher := secret.NewBcryptHasher(0)
	idGenerator := idgen.NewULIDGenerator()
	logNotifier := notifier.NewLogNotifier(log)
	reconQueue := memory.NewReconciliationQueue()

	// Initialize use cases
	transferUC := usecase.NewTransferUseCase(usecase.TransferConfig{
		Accounts:       accountStore,
		Ledger:         ledgerStore,
		Hasher:         hasher,
		IDGenerator:    idGenerator,
		Notifier:       logNotifier,
		Reconciliation: reconQueue,
		Logger:         log,
		MaxRetries:     cfg.TransferMaxRetries,
	})
	provisioningUC := usecase.NewProvisioningUseCase(usecase.ProvisioningConfig{
		Accounts:            accountStore,
		Ledger:              ledgerStore,
		Hasher:              hasher,
		IDGenerator:         idGenerator,
		Logger:              log,
		SecretDigits:        cfg.SecretDigits,
		AccountNumberLength: cfg.AccountNumberLength,
		DefaultSeedBalance:  defaultSeed,
	})
	accountUC := usecase.NewAccountUseCase(accountStore, hasher, cfg.SecretDigits)
	ledgerUC := usecase.NewLedgerUseCase(accountStore, ledgerStore)

	// Reconciliation worker for credits that failed after a committed debit
	recon := reconciler.New(reconciler.Config{
		Queue:       reconQueue,
		Accounts:    accountStore,
		Ledger:      ledgerStore,
		IDGenerator: idGenerator,
		Notifier:    logNotifier,
		Metrics:     m,
		Logger:      log,
		BatchSize:   cfg.ReconcileBatchSize,
		Interval:    cfg.ReconcileInterval,
		MaxAttempts: cfg.ReconcileMaxTries,
	})

	go func() {
		if err := recon.Start(ctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("reconciler stopped")
		}
	}()

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountUC, provisioningUC, m)
	transferHandler := handler.NewTransferHandler(transferUC, secretLimiter, m, log)
	entryHandler := handler.NewEntryHandler(ledgerUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   accountHandler,
		TransferHandler:  transferHandler,
		EntryHandler:     entryHandler,
		HealthHandler:    healthHandler,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m),
		Metrics:          m,
		Logger:           log,
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
		log.Info().Str("port", cfg.HTTPPort).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
