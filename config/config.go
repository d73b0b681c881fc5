package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all CLI configuration loaded from environment variables.
// Required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Solana endpoints
	SolanaRPCURL string
	SolanaWSURL  string

	// Optional integrations
	NATSURL     string // confirmation events are published when set
	DatabaseURL string // confirmation attempts are recorded when set

	// Logging
	LogLevel string

	// Block-height exceedance polling
	BlockHeightPollInterval time.Duration
}

// Load reads configuration from environment variables and validates all
// required fields. Returns an error if any required configuration is
// missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	cfg.SolanaWSURL = os.Getenv("SOLANA_WS_URL")
	if cfg.SolanaWSURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_WS_URL is required"))
	}

	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	pollInterval, err := parseDuration("BLOCKHEIGHT_POLL_INTERVAL", "1s")
	if err != nil {
		errs = append(errs, err)
	}
	cfg.BlockHeightPollInterval = pollInterval

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration environment variable with a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %q", key, value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}
