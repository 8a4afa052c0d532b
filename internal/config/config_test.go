// Modaro - Rental Platform Product Recommendations
// Copyright 2026 Modaro Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/modaro/recommender

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() error = %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "" }},
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "unknown environment", mutate: func(c *Config) { c.Server.Environment = "staging" }},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "unknown log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "zero max open conns", mutate: func(c *Config) { c.Database.MaxOpenConns = 0 }},
		{name: "invalid engine config", mutate: func(c *Config) { c.Recommend.Limits.DefaultLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"HTTP_HOST", "server.host"},
		{"ENVIRONMENT", "server.environment"},
		{"CORS_ORIGINS", "server.cors_origins"},
		{"DATABASE_URL", "database.url"},
		{"BREAKER_ENABLED", "database.breaker.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"RECOMMEND_MAX_NEIGHBORS", "recommend.neighbors.max_neighbors"},
		{"RECOMMEND_MIN_PREDICTED_RATING", "recommend.predictor.min_predicted_rating"},
		{"RECOMMEND_CONTENT_CATEGORY_WEIGHT", "recommend.content.category_weight"},
		{"RECOMMEND_CACHE_TTL", "recommend.cache.ttl"},
		{"PATH", ""},
		{"HOME", ""},
		{"SOME_RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := envTransformFunc(tt.in); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	// Run in an empty directory so no config file is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8480 {
		t.Errorf("port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Recommend.Neighbors.MaxNeighbors != 10 {
		t.Errorf("max neighbors = %d, want 10", cfg.Recommend.Neighbors.MaxNeighbors)
	}
	if !cfg.Database.Breaker.Enabled {
		t.Error("breaker should default to enabled")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("RECOMMEND_MAX_NEIGHBORS", "4")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Recommend.Neighbors.MaxNeighbors != 4 {
		t.Errorf("max neighbors = %d, want 4", cfg.Recommend.Neighbors.MaxNeighbors)
	}
	wantOrigins := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Server.CORSOrigins) != len(wantOrigins) {
		t.Fatalf("cors origins = %v, want %v", cfg.Server.CORSOrigins, wantOrigins)
	}
	for i, want := range wantOrigins {
		if cfg.Server.CORSOrigins[i] != want {
			t.Errorf("cors origin[%d] = %q, want %q", i, cfg.Server.CORSOrigins[i], want)
		}
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := []byte(`
server:
  port: 8990
recommend:
  limits:
    default_limit: 20
`)
	path := filepath.Join(dir, "override.yaml")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8990 {
		t.Errorf("port = %d, want 8990", cfg.Server.Port)
	}
	if cfg.Recommend.Limits.DefaultLimit != 20 {
		t.Errorf("default limit = %d, want 20", cfg.Recommend.Limits.DefaultLimit)
	}
	// Untouched values keep their defaults.
	if cfg.Recommend.Limits.MaxLimit != 50 {
		t.Errorf("max limit = %d, want 50", cfg.Recommend.Limits.MaxLimit)
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RECOMMEND_MAX_NEIGHBORS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted invalid configuration")
	}
}
