// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

// Package config loads and validates the service configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/modaro/recommender/internal/recommend"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig     `json:"server" koanf:"server"`
	Database  DatabaseConfig   `json:"database" koanf:"database"`
	Logging   LoggingConfig    `json:"logging" koanf:"logging"`
	Recommend recommend.Config `json:"recommend" koanf:"recommend"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Default: 0.0.0.0
	Host string `json:"host" koanf:"host" validate:"required"`

	// Port is the listen port. Default: 8480
	Port int `json:"port" koanf:"port" validate:"required,min=1,max=65535"`

	// Timeout bounds request read/write. Default: 30s
	Timeout time.Duration `json:"timeout" koanf:"timeout" validate:"required"`

	// Environment is "development" or "production".
	Environment string `json:"environment" koanf:"environment" validate:"oneof=development production"`

	// CORSOrigins lists allowed CORS origins. Default: ["*"]
	CORSOrigins []string `json:"cors_origins" koanf:"cors_origins"`

	// RateLimitReqs is the allowed requests per window per client IP.
	// Default: 100
	RateLimitReqs int `json:"rate_limit_reqs" koanf:"rate_limit_reqs" validate:"min=1"`

	// RateLimitWindow is the rate limit window. Default: 1m
	RateLimitWindow time.Duration `json:"rate_limit_window" koanf:"rate_limit_window"`

	// RateLimitDisabled turns off request rate limiting.
	RateLimitDisabled bool `json:"rate_limit_disabled" koanf:"rate_limit_disabled"`
}

// DatabaseConfig contains PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	URL string `json:"url" koanf:"url" validate:"required"`

	// MaxOpenConns bounds the connection pool. Default: 25
	MaxOpenConns int `json:"max_open_conns" koanf:"max_open_conns" validate:"min=1"`

	// MaxIdleConns bounds idle pooled connections. Default: 5
	MaxIdleConns int `json:"max_idle_conns" koanf:"max_idle_conns" validate:"min=0"`

	// ConnMaxLifetime recycles connections older than this. Default: 30m
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" koanf:"conn_max_lifetime"`

	// Breaker contains circuit breaker settings for store reads.
	Breaker BreakerConfig `json:"breaker" koanf:"breaker"`
}

// BreakerConfig tunes the circuit breaker wrapped around store reads. The
// breaker trips after ConsecutiveFailures and probes again after OpenTimeout.
type BreakerConfig struct {
	// Enabled controls whether reads go through the breaker. Default: true
	Enabled bool `json:"enabled" koanf:"enabled"`

	// ConsecutiveFailures trips the breaker. Default: 5
	ConsecutiveFailures int `json:"consecutive_failures" koanf:"consecutive_failures" validate:"min=1"`

	// OpenTimeout is how long the breaker stays open before probing.
	// Default: 30s
	OpenTimeout time.Duration `json:"open_timeout" koanf:"open_timeout"`

	// MaxHalfOpenRequests bounds probe requests while half-open.
	// Default: 3
	MaxHalfOpenRequests int `json:"max_half_open_requests" koanf:"max_half_open_requests" validate:"min=1"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level. Default: info
	Level string `json:"level" koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`

	// Format is json or console. Default: json
	Format string `json:"format" koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file/line in log output. Default: false
	Caller bool `json:"caller" koanf:"caller"`
}

// Validate checks the configuration, combining struct-tag validation with
// the engine's own config checks.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("invalid recommend configuration: %w", err)
	}
	return nil
}
