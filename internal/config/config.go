// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir            string // Base directory for databases (always absolute)
	Port               int
	LogLevel           string
	DevMode            bool
	ExchangeRateAPIKey string        // exchangerate-api.com key; empty = permanent fallback-only mode
	CronSecret         string        // Bearer token guarding the manual refresh endpoint
	RatesTTL           time.Duration // Lifetime of an API-sourced rate snapshot
	FallbackTTL        time.Duration // Shorter lifetime for fallback snapshots, to retry sooner
	RefreshInterval    time.Duration // Background refresh cadence (ahead of expiry)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// 1. Check FXCALC_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("FXCALC_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8080),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		ExchangeRateAPIKey: getEnv("EXCHANGE_RATE_API_KEY", ""),
		CronSecret:         getEnv("CRON_SECRET_KEY", ""),
		RatesTTL:           getEnvAsDuration("RATES_CACHE_TTL", 12*time.Hour),
		FallbackTTL:        getEnvAsDuration("FALLBACK_CACHE_TTL", time.Hour),
		RefreshInterval:    getEnvAsDuration("RATES_REFRESH_INTERVAL", 6*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable.
// Note: the exchange rate API key is deliberately optional - its absence
// degrades the service to fallback-only rates rather than failing startup.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RatesTTL <= 0 {
		return fmt.Errorf("rates cache TTL must be positive, got %s", c.RatesTTL)
	}
	if c.FallbackTTL <= 0 {
		return fmt.Errorf("fallback cache TTL must be positive, got %s", c.FallbackTTL)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
