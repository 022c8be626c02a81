package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kislikjeka/piclaim/internal/transport/httpapi/handler"
	"github.com/kislikjeka/piclaim/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/piclaim/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger         *logger.Logger
	AllowedOrigins []string
	WalletHandler  *handler.WalletHandler
	BalanceHandler *handler.BalanceHandler
	LogHandler     *handler.LogHandler
	HealthHandler  *handler.HealthHandler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20

	// Health check endpoints
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
		r.Get("/health/detailed", cfg.HealthHandler.GetHealthDetailed)
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.WalletHandler != nil {
			r.Post("/monitor-wallet", cfg.WalletHandler.MonitorWallet)
			r.Get("/wallets", cfg.WalletHandler.GetWallets)
			r.Delete("/stop-monitoring/{walletId}", cfg.WalletHandler.StopMonitoring)
		}

		if cfg.BalanceHandler != nil {
			r.Get("/monitored-balances", cfg.BalanceHandler.GetMonitoredBalances)
			r.Get("/monitored-balances/{walletId}", cfg.BalanceHandler.GetMonitoredBalancesByWallet)
			r.Get("/claimable-balances/{address}", cfg.BalanceHandler.GetClaimableBalances)
			r.Get("/sequence/{address}", cfg.BalanceHandler.GetSequence)
		}

		if cfg.LogHandler != nil {
			r.Get("/logs", cfg.LogHandler.GetLogs)
			r.Delete("/logs", cfg.LogHandler.ClearLogs)
		}
	})

	return r
}
