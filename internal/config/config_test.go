package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FXCALC_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Empty(t, cfg.ExchangeRateAPIKey)
	assert.Equal(t, 12*time.Hour, cfg.RatesTTL)
	assert.Equal(t, time.Hour, cfg.FallbackTTL)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FXCALC_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("EXCHANGE_RATE_API_KEY", "test-key")
	t.Setenv("RATES_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, "test-key", cfg.ExchangeRateAPIKey)
	assert.Equal(t, 5*time.Minute, cfg.RatesTTL)
}

func TestValidate(t *testing.T) {
	valid := &Config{Port: 8080, RatesTTL: time.Hour, FallbackTTL: time.Minute}
	require.NoError(t, valid.Validate())

	badPort := &Config{Port: -1, RatesTTL: time.Hour, FallbackTTL: time.Minute}
	assert.Error(t, badPort.Validate())

	badTTL := &Config{Port: 8080, RatesTTL: 0, FallbackTTL: time.Minute}
	assert.Error(t, badTTL.Validate())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("FXCALC_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("RATES_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.RatesTTL)
}
