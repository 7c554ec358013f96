// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package config loads FeedEngine configuration from layered sources:
// built-in defaults, an optional YAML file, and FEEDENGINE_-prefixed
// environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/inspirehub/feedengine/internal/recommend"
	"github.com/inspirehub/feedengine/internal/recommend/algorithms"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	// Zero disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CacheTTL bounds how long a feed response may be served from
	// cache. Zero disables response caching.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CORSAllowedOrigins lists origins allowed to call the API from
	// a browser. Empty disables the CORS middleware entirely.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	CORSMaxAge         int      `koanf:"cors_max_age"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path        string        `koanf:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// IngestConfig configures the remote feed API ingestion job.
type IngestConfig struct {
	Enabled  bool   `koanf:"enabled"`
	BaseURL  string `koanf:"base_url"`
	Token    string `koanf:"token"`
	PageSize int    `koanf:"page_size"`

	// MaxPages caps one ingestion run. Zero means fetch until the API
	// reports the last page.
	MaxPages       int           `koanf:"max_pages"`
	Interval       time.Duration `koanf:"interval"`
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// RatePerSecond throttles outgoing API calls.
	RatePerSecond float64 `koanf:"rate_per_second"`
	Burst         int     `koanf:"burst"`
}

// RecommendConfig mirrors the engine configuration in flat form.
type RecommendConfig struct {
	ContentWeight       float64       `koanf:"content_weight"`
	CollaborativeWeight float64       `koanf:"collaborative_weight"`
	MoodDamping         float64       `koanf:"mood_damping"`
	MinTokenLength      int           `koanf:"min_token_length"`
	RebuildOnStartup    bool          `koanf:"rebuild_on_startup"`
	RebuildInterval     time.Duration `koanf:"rebuild_interval"`
	RebuildTimeout      time.Duration `koanf:"rebuild_timeout"`
	DefaultK            int           `koanf:"default_k"`
	MaxK                int           `koanf:"max_k"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the config
// file and environment layers.
func defaultConfig() *Config {
	rec := recommend.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8600,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CacheTTL:        30 * time.Second,
			CORSMaxAge:      300,
		},
		Database: DatabaseConfig{
			Path:        "/data/feedengine.db",
			BusyTimeout: 5 * time.Second,
		},
		Ingest: IngestConfig{
			Enabled:        false,
			PageSize:       1000,
			Interval:       6 * time.Hour,
			RequestTimeout: 30 * time.Second,
			RatePerSecond:  5,
			Burst:          5,
		},
		Recommend: RecommendConfig{
			ContentWeight:       rec.Weights.Content,
			CollaborativeWeight: rec.Weights.Collaborative,
			MoodDamping:         rec.Content.MoodDamping,
			MinTokenLength:      rec.Content.MinTokenLength,
			RebuildOnStartup:    rec.Rebuild.OnStartup,
			RebuildInterval:     rec.Rebuild.Interval,
			RebuildTimeout:      rec.Rebuild.Timeout,
			DefaultK:            rec.Limits.DefaultK,
			MaxK:                rec.Limits.MaxK,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// EngineConfig converts the flat recommendation section into the engine
// configuration type.
func (c *Config) EngineConfig() *recommend.Config {
	return &recommend.Config{
		Weights: recommend.BlendWeights{
			Content:       c.Recommend.ContentWeight,
			Collaborative: c.Recommend.CollaborativeWeight,
		},
		Content: algorithms.ContentConfig{
			MoodDamping:    c.Recommend.MoodDamping,
			MinTokenLength: c.Recommend.MinTokenLength,
		},
		Rebuild: recommend.RebuildConfig{
			OnStartup: c.Recommend.RebuildOnStartup,
			Interval:  c.Recommend.RebuildInterval,
			Timeout:   c.Recommend.RebuildTimeout,
		},
		Limits: recommend.LimitsConfig{
			DefaultK: c.Recommend.DefaultK,
			MaxK:     c.Recommend.MaxK,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must be non-negative, got %d", c.Server.RateLimitReqs)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Ingest.Enabled {
		if c.Ingest.BaseURL == "" {
			return fmt.Errorf("ingest.base_url is required when ingest is enabled")
		}
		if c.Ingest.PageSize < 1 {
			return fmt.Errorf("ingest.page_size must be positive, got %d", c.Ingest.PageSize)
		}
		if c.Ingest.RatePerSecond <= 0 {
			return fmt.Errorf("ingest.rate_per_second must be positive, got %f", c.Ingest.RatePerSecond)
		}
	}
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}
