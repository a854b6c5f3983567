// Package main is the entry point for the ledger API.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"purse/internal/config"
	"purse/internal/handlers"
	"purse/internal/logger"
	"purse/internal/messaging"
	"purse/internal/repositories"
	"purse/internal/routes"
	"purse/internal/services/gateway"
	"purse/internal/services/wallet"
	"purse/internal/services/webhook"
)

// main wires the ledger together:
// - Loads configuration
// - Initializes Postgres and Redis
// - Builds the gateway, ledger engine and webhook reconciler
// - Serves the HTTP API until SIGINT/SIGTERM
func main() {
	config.LoadEnv()
	cfg := config.Load()
	logger.Init(cfg.LogLevel, !config.IsProduction())

	if err := repositories.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer closeStores()

	// Log pool stats periodically
	sqlDB, err := repositories.DB.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database instance")
	}
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			stats := sqlDB.Stats()
			log.Debug().
				Int("open", stats.OpenConnections).
				Int("idle", stats.Idle).
				Int("in_use", stats.InUse).
				Int64("wait_count", stats.WaitCount).
				Dur("wait_duration", stats.WaitDuration).
				Msg("db pool stats")
		}
	}()

	gw, err := gateway.New(cfg, repositories.CacheService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure payment gateway")
	}

	var publisher wallet.EventPublisher
	if cfg.RabbitMQURL != "" {
		p, err := messaging.Dial(cfg.RabbitMQURL, "purse_api")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer p.Close()
		publisher = p
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, ledger events are not published")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	retry := repositories.RetryPolicy{MaxRetries: cfg.Ledger.MaxRetries, Backoff: cfg.Ledger.RetryBackoff}
	walletRepo := repositories.NewWalletRepository(repositories.DB, retry, cfg.Ledger.LockTimeout)
	failures := repositories.NewFailedTransactionRepository(repositories.DB)

	walletService := wallet.NewService(
		walletRepo,
		failures,
		gw,
		repositories.CacheService,
		publisher,
		wallet.Config{
			Currency:         cfg.Ledger.Currency,
			OperationTimeout: cfg.Ledger.OperationTimeout,
		},
		wallet.NewPrometheusMetrics(reg),
	)

	webhookService := webhook.NewService(
		walletService,
		failures,
		gw,
		repositories.CacheService,
		webhook.Config{
			SecretHash:     cfg.Webhook.SecretHash,
			VerifyPayments: cfg.Webhook.VerifyPayments,
			DedupTTL:       cfg.Webhook.DedupTTL,
		},
	)
	if cfg.Webhook.SecretHash == "" {
		log.Warn().Msg("FLW_SECRET_HASH not set, webhook signatures are not checked")
	}

	app := fiber.New(fiber.Config{
		AppName:      "purse",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Ledger.OperationTimeout + 5*time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
		AllowMethods:     "GET,POST,HEAD",
		AllowCredentials: true,
	}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Use("/api/v1/wallet", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	routes.SetupRoutes(app, routes.Dependencies{
		Wallet:    walletService,
		Webhook:   webhookService,
		JWTSecret: cfg.JWTSecret,
		HealthChecks: map[string]handlers.Check{
			"database": repositories.Ping,
			"redis":    repositories.CacheService.HealthCheck,
		},
		HealthStats: map[string]handlers.Stats{
			"redis_pool": func() interface{} { return repositories.CacheService.GetStats() },
		},
		Gatherer: reg,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("provider", cfg.PaymentProvider).Msg("ledger api started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.ShutdownWithTimeout(cfg.Ledger.OperationTimeout); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func closeStores() {
	if repositories.DB != nil {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database connection")
			}
		}
	}
	if repositories.CacheService != nil {
		if err := repositories.CacheService.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis connection")
		}
	}
}

