// Package config loads settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/adamehabm/Numerical-Project/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Solver    SolverConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `envconfig:"ROOTFIND_ADDR" default:":8080"`
}

// SolverConfig bounds runs started through the server.
type SolverConfig struct {
	// IterationGuard caps every server run on top of its own rule.
	IterationGuard int `envconfig:"ROOTFIND_ITERATION_GUARD" default:"10000"`
	// PlotPoints is the number of f(x) samples returned for plotting.
	PlotPoints int `envconfig:"ROOTFIND_PLOT_POINTS" default:"400"`
	// RunRetention is how long finished runs stay queryable. Zero keeps them.
	RunRetention time.Duration `envconfig:"ROOTFIND_RUN_RETENTION" default:"1h"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-client limits for starting runs.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"RATE_LIMIT_RPS" default:"5"`
	Burst             int     `envconfig:"RATE_LIMIT_BURST" default:"10"`
	Enabled           bool    `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Solver: SolverConfig{
			IterationGuard: 10000,
			PlotPoints:     400,
			RunRetention:   time.Hour,
		},
		Logging: LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Enabled:           true,
		},
	}
}

// Logger converts the logging section for the logging package.
func (c LogConfig) Logger() logging.Config {
	return logging.Config{Level: c.Level, Development: c.Development}
}
