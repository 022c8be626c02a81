package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"

	"github.com/kislikjeka/piclaim/internal/infra/gateway/pinet"
	"github.com/kislikjeka/piclaim/internal/infra/postgres"
	infraRedis "github.com/kislikjeka/piclaim/internal/infra/redis"
	"github.com/kislikjeka/piclaim/internal/ledger"
	"github.com/kislikjeka/piclaim/internal/platform/balance"
	"github.com/kislikjeka/piclaim/internal/platform/logring"
	"github.com/kislikjeka/piclaim/internal/platform/monitor"
	"github.com/kislikjeka/piclaim/internal/platform/seqcache"
	"github.com/kislikjeka/piclaim/internal/platform/txbuilder"
	"github.com/kislikjeka/piclaim/internal/platform/wallet"
	"github.com/kislikjeka/piclaim/internal/transport/httpapi"
	"github.com/kislikjeka/piclaim/internal/transport/httpapi/handler"
	"github.com/kislikjeka/piclaim/pkg/config"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting claim scheduler",
		"env", cfg.Env,
		"port", cfg.Port,
		"ledger", cfg.LedgerBaseURL,
	)

	clk := clock.New()

	// Wallet store: in-memory by default, PostgreSQL when configured
	var (
		walletRepo wallet.Repository
		db         *postgres.DB
	)
	if cfg.DatabaseURL != "" {
		db, err = postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		walletRepo = postgres.NewWalletRepository(db.Pool)
		log.Info("Database connection established")
	} else {
		walletRepo = wallet.NewMemoryRepository()
		log.Info("Using in-memory wallet store")
	}

	// Optional passthrough response cache
	var respCache handler.ResponseCache
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		respCache = infraRedis.NewCache(redisClient, log)
		log.Info("Redis connection established")
	}

	// Ledger gateway and scheduling components
	gateway := pinet.NewClient(cfg.LedgerBaseURL, cfg.LedgerTimeout, log)
	sequences := seqcache.New(gateway, clk, cfg.SequenceTTL, log)
	builder := txbuilder.New(cfg.NetworkPassphrase, cfg.TxFee, cfg.TxValidity, clk)
	resolver := ledger.NewResolver(clk, log)
	registry := balance.NewRegistry(log)
	ring := logring.NewRing(cfg.MaxLogs, clk)

	walletSvc := wallet.NewService(walletRepo, log)

	monitorSvc := monitor.NewService(monitor.Config{
		PrepLead:      cfg.PrepLead,
		PostDelay:     cfg.PostDelay,
		PollInterval:  cfg.PollInterval,
		SweepInterval: cfg.SweepInterval,
	}, monitor.Dependencies{
		Gateway:   gateway,
		Sequences: sequences,
		Builder:   builder,
		Resolver:  resolver,
		Wallets:   walletRepo,
		Balances:  registry,
		Ring:      ring,
		Clock:     clk,
		Logger:    log,
	})

	// HTTP handlers
	walletHandler := handler.NewWalletHandler(walletSvc, monitorSvc)
	balanceHandler := handler.NewBalanceHandler(gateway, registry, respCache)
	logHandler := handler.NewLogHandler(ring)

	var pinger handler.DatabasePinger
	if db != nil {
		pinger = db
	}
	healthHandler := handler.NewHealthHandler(pinger)

	// Determine allowed origins for CORS
	allowedOrigins := cfg.CORSAllowedOrigins
	if len(allowedOrigins) == 0 && !cfg.IsProduction() {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:5174"} // Vite ports
	}

	// Create HTTP router
	r := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		AllowedOrigins: allowedOrigins,
		WalletHandler:  walletHandler,
		BalanceHandler: balanceHandler,
		LogHandler:     logHandler,
		HealthHandler:  healthHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the monitor: resumes polling for stored wallets
	go monitorSvc.Run(ctx)
	log.Info("Monitor started",
		"poll_interval", cfg.PollInterval,
		"sweep_interval", cfg.SweepInterval)

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Stop the monitor gracefully
	monitorSvc.Stop()
	log.Info("Monitor stopped")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped gracefully")
}
