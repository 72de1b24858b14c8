package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/adiawaskar/smart-upi-poc/internal/auth"
	"github.com/adiawaskar/smart-upi-poc/internal/cache"
	"github.com/adiawaskar/smart-upi-poc/internal/cli"
	"github.com/adiawaskar/smart-upi-poc/internal/core"
	apphttp "github.com/adiawaskar/smart-upi-poc/internal/http"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/seed"
	"github.com/adiawaskar/smart-upi-poc/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	if cfg.UsesDevSecret() {
		logger.Warn("JWT_SECRET not set, using the development secret")
	}

	ctx := context.Background()
	backend, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.Error("Failed to configure tokens", "error", err)
		os.Exit(1)
	}

	txCfg := services.TransactionServiceConfig{Store: backend.Store}

	events, err := cli.DialAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	if events != nil {
		txCfg.Publisher = events
	}

	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	if cfg.StatsCacheTTL > 0 {
		lru := cache.NewLRUCache[core.Stats](cfg.StatsCacheSize, cfg.StatsCacheTTL)
		cacheManager.Register(lru)
		cacheManager.StartCleanup(cfg.StatsCacheTTL)
		txCfg.StatsCache = cache.NewLoading[core.Stats](lru)
	}

	if cfg.DemoSeed {
		txCfg.Seeder = seed.NewGenerator(time.Now().UnixNano(), nil)
		txCfg.SeedCount = cfg.DemoSeedCount
		logger.Info("Demo seeding enabled", "count", cfg.DemoSeedCount)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Transactions:       services.NewTransactionService(txCfg),
		Auth:               services.NewAuthService(backend.Store, auth.NewHasher(), tokens),
		Tokens:             tokens,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              backend.Store.Ping,
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if cfg.StatsCacheTTL > 0 {
			cacheManager.Stop()
		}
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Error("Failed to close AMQP client", "error", err)
			}
		}
		if err := backend.Cleanup(); err != nil {
			logger.Error("Failed to close record store", "error", err)
		}
	})

	logger.Info("Starting smart-upi server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
