package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port string
	Env  string

	// Ledger (Pi Network Horizon-compatible API) configuration
	LedgerBaseURL     string
	NetworkPassphrase string
	LedgerTimeout     time.Duration

	// Claim scheduler timing
	PrepLead      time.Duration // sequence pre-fetch lead before unlock
	PostDelay     time.Duration // submit delay after unlock
	SequenceTTL   time.Duration
	PollInterval  time.Duration
	SweepInterval time.Duration

	// Transaction parameters
	TxFee         int64 // total fee in stroops
	TxValidity    time.Duration
	MaxLogs       int
	ShutdownGrace time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Optional durable wallet store (in-memory when empty)
	DatabaseURL string

	// Optional passthrough response cache (disabled when empty)
	RedisURL      string
	RedisPassword string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		LedgerBaseURL:     getEnv("LEDGER_BASE_URL", "https://api.mainnet.minepi.com"),
		NetworkPassphrase: getEnv("NETWORK_PASSPHRASE", "Pi Network"),
		LedgerTimeout:     getEnvAsDuration("LEDGER_TIMEOUT", 15*time.Second),
		PrepLead:          time.Duration(getEnvAsInt("PREP_MS", 2000)) * time.Millisecond,
		PostDelay:         time.Duration(getEnvAsInt("POST_MS", 5)) * time.Millisecond,
		SequenceTTL:       time.Duration(getEnvAsInt("SEQ_TTL_MS", 30000)) * time.Millisecond,
		PollInterval:      getEnvAsDuration("POLL_INTERVAL", 5*time.Minute),
		SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", 2*time.Minute),
		TxFee:             int64(getEnvAsInt("TX_FEE", 1000000)),
		TxValidity:        time.Duration(getEnvAsInt("TX_VALIDITY_S", 120)) * time.Second,
		MaxLogs:           getEnvAsInt("MAX_LOGS", 500),
		ShutdownGrace:     getEnvAsDuration("SHUTDOWN_GRACE", 5*time.Second),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
	}

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and well-formed
func (c *Config) Validate() error {
	if c.LedgerBaseURL == "" {
		return fmt.Errorf("LEDGER_BASE_URL is required")
	}

	u, err := url.Parse(c.LedgerBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("LEDGER_BASE_URL is not a valid URL: %q", c.LedgerBaseURL)
	}

	if c.NetworkPassphrase == "" {
		return fmt.Errorf("NETWORK_PASSPHRASE is required")
	}

	if c.TxFee <= 0 {
		return fmt.Errorf("TX_FEE must be positive, got %d", c.TxFee)
	}

	if c.MaxLogs <= 0 {
		return fmt.Errorf("MAX_LOGS must be positive, got %d", c.MaxLogs)
	}

	if c.PollInterval <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL and SWEEP_INTERVAL must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable as a Go duration string
// ("5m", "15s") with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
