package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10000, cfg.Solver.IterationGuard)
	assert.Equal(t, 400, cfg.Solver.PlotPoints)
	assert.Equal(t, time.Hour, cfg.Solver.RunRetention)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("ROOTFIND_ADDR", "127.0.0.1:9000")
	t.Setenv("ROOTFIND_ITERATION_GUARD", "50")
	t.Setenv("ROOTFIND_RUN_RETENTION", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 50, cfg.Solver.IterationGuard)
	assert.Equal(t, 90*time.Second, cfg.Solver.RunRetention)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	assert.False(t, cfg.RateLimit.Enabled)

	lc := cfg.Logging.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Development)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("ROOTFIND_ITERATION_GUARD", "lots")

	_, err := Load()
	assert.Error(t, err)
	assert.Equal(t, Default(), LoadOrDefault())
}
