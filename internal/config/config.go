// Trailguide - Adaptive Trail Recommendation Engine
// Copyright 2026 Matteo B. (MatteoBdl31)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MatteoBdl31/trailguide

// Package config loads the service configuration from layered sources with
// clear precedence: environment variables > YAML config file > defaults.
package config

import (
	"fmt"
	"time"

	"github.com/MatteoBdl31/trailguide/internal/explain"
	"github.com/MatteoBdl31/trailguide/internal/logging"
	"github.com/MatteoBdl31/trailguide/internal/recommend"
	"github.com/MatteoBdl31/trailguide/internal/storage"
	"github.com/MatteoBdl31/trailguide/internal/weather"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig     `koanf:"server"`
	Database storage.Config   `koanf:"database"`
	Logging  logging.Config   `koanf:"logging"`
	Engine   recommend.Config `koanf:"engine"`
	Weather  WeatherConfig    `koanf:"weather"`
	Explain  ExplainConfig    `koanf:"explain"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout is the per-request read/write timeout.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs and RateLimitWindow throttle requests per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// SeedDemo loads the demo catalog at startup when the trails table is
	// empty. Intended for demos and first-run setups.
	SeedDemo bool `koanf:"seed_demo"`
}

// WeatherConfig configures forecast enrichment.
type WeatherConfig struct {
	// Enabled toggles weather enrichment. When off, all trails score with
	// the neutral weather criterion.
	Enabled bool `koanf:"enabled"`

	Client   weather.ClientConfig   `koanf:"client"`
	Enricher weather.EnricherConfig `koanf:"enricher"`

	// CachePath is the forecast cache directory. Empty uses an in-memory
	// cache that does not survive restarts.
	CachePath string `koanf:"cache_path"`

	// CacheTTL is how long a forecast stays valid. Default: 1h.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// ExplainConfig configures explanation generation.
type ExplainConfig struct {
	// Enabled toggles the completion backend. Deterministic fallback
	// explanations are produced either way.
	Enabled bool `koanf:"enabled"`

	Client   explain.ClientConfig   `koanf:"client"`
	Enricher explain.EnricherConfig `koanf:"enricher"`
}

// defaultConfig returns the built-in defaults, overridden by config file and
// environment variables during Load.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8642,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			SeedDemo:        false,
		},
		Database: storage.DefaultConfig(),
		Logging:  logging.DefaultConfig(),
		Engine:   *recommend.DefaultConfig(),
		Weather: WeatherConfig{
			Enabled:  true,
			Client:   weather.DefaultClientConfig(),
			Enricher: weather.DefaultEnricherConfig(),
			CacheTTL: time.Hour,
		},
		Explain: ExplainConfig{
			Enabled:  false,
			Client:   explain.DefaultClientConfig(),
			Enricher: explain.DefaultEnricherConfig(),
		},
	}
}

// Validate checks the configuration. Invalid values are fatal at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must be non-negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Explain.Enabled && c.Explain.Client.BaseURL == "" {
		return fmt.Errorf("explain.client.base_url is required when explain.enabled is set")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
