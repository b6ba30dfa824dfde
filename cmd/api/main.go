package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"banking-ledger/api"
	"banking-ledger/config"
	httpHandler "banking-ledger/internal/adapter/http/handler"
	"banking-ledger/internal/adapter/http/middleware"
	"banking-ledger/internal/adapter/metrics"
	memStorage "banking-ledger/internal/adapter/storage/memory"
	pgStorage "banking-ledger/internal/adapter/storage/postgres"
	redisStorage "banking-ledger/internal/adapter/storage/redis"
	"banking-ledger/internal/core/ports"
	"banking-ledger/internal/service"
	"banking-ledger/pkg/i18n"
	"banking-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("LEDGER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting Banking Ledger")

	ctx := context.Background()

	var (
		accountRepo ports.AccountRepository
		txRepo      ports.TransactionRepository
		auditRepo   ports.AuditRepository
		transactor  ports.DBTransactor
		checkers    []ports.HealthChecker
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store := memStorage.NewStore()
		accountRepo = store.Accounts()
		txRepo = store.Transactions()
		auditRepo = store.Audit()
		transactor = store.Transactor()
		log.Warn().Msg("Using in-memory storage; data is lost on exit")
	default:
		pgLog := logger.Component(log, "postgres")
		pool, err := pgStorage.NewPool(ctx, cfg.Database, pgLog)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		log.Info().Msg("PostgreSQL connected")

		if cfg.Database.AutoMigrate {
			if err := pgStorage.Migrate(ctx, pool, pgLog); err != nil {
				log.Fatal().Err(err).Msg("Failed to apply schema")
			}
		}

		accountRepo = pgStorage.NewAccountRepo(pool)
		txRepo = pgStorage.NewTransactionRepo(pool)
		auditRepo = pgStorage.NewAuditRepo(pool)
		transactor = pgStorage.NewTransactor(pool)
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
	}

	// Redis backs idempotent transfers and rate limiting; both switch off
	// without it.
	var (
		idempotencyCache ports.IdempotencyCache
		rateLimitStore   *redisStorage.RateLimitStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, logger.Component(log, "redis"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer func(c *goredis.Client) { _ = c.Close() }(rdb)
		log.Info().Msg("Redis connected")

		idempotencyCache = redisStorage.NewIdempotencyCache(rdb)
		if cfg.RateLimit.Enabled {
			rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		}
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	var (
		ledgerMetrics  ports.LedgerMetrics
		httpObserver   middleware.HTTPObserver
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector := metrics.NewCollector(cfg.Metrics.Namespace)
		if err := collector.Register(registry); err != nil {
			log.Fatal().Err(err).Msg("Failed to register metrics")
		}
		ledgerMetrics = collector
		httpObserver = collector
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	}

	localizer, err := i18n.New(cfg.I18n.DefaultLocale)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize localization")
	}

	var tokenSvc ports.TokenService
	if cfg.JWT.Enabled {
		tokenSvc = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	}

	openingBalance, err := cfg.Ledger.OpeningAmount()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid opening balance")
	}

	accountSvc := service.NewAccountService(
		accountRepo,
		openingBalance,
		cfg.Ledger.AccountNumberAttempts,
		ledgerMetrics,
		logger.Component(log, "accounts"),
	)
	ledgerSvc := service.NewLedgerService(
		accountRepo,
		txRepo,
		transactor,
		idempotencyCache,
		service.LedgerOptions{
			DefaultPageSize: cfg.Ledger.DefaultPageSize,
			MaxPageSize:     cfg.Ledger.MaxPageSize,
			IdempotencyTTL:  cfg.Ledger.IdempotencyTTL,
		},
		ledgerMetrics,
		logger.Component(log, "ledger"),
	)
	reportingSvc := service.NewReportingService(accountRepo, txRepo)
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AccountSvc:     accountSvc,
		LedgerSvc:      ledgerSvc,
		ReportingSvc:   reportingSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		RateLimitRules: middleware.RateLimitRules(cfg.RateLimit),
		AuditSvc:       auditSvc,
		HealthCheckers: checkers,
		Localizer:      localizer,
		Metrics:        httpObserver,
		MetricsHandler: metricsHandler,
		OpenAPISpec:    api.OpenAPI,
		Logger:         logger.Component(log, "http"),
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
