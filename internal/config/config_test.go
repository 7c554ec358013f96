// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaultConfig().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:   "defaults pass",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name:    "ingest enabled without base url",
			mutate:  func(c *Config) { c.Ingest.Enabled = true },
			wantErr: true,
		},
		{
			name: "ingest enabled with base url",
			mutate: func(c *Config) {
				c.Ingest.Enabled = true
				c.Ingest.BaseURL = "https://api.example.com"
			},
		},
		{
			name:    "negative blend weight",
			mutate:  func(c *Config) { c.Recommend.ContentWeight = -0.5 },
			wantErr: true,
		},
		{
			name:    "max_k below default_k",
			mutate:  func(c *Config) { c.Recommend.MaxK = 1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Recommend.ContentWeight = 0.4
	cfg.Recommend.CollaborativeWeight = 0.6
	cfg.Recommend.MaxK = 50

	ec := cfg.EngineConfig()
	if ec.Weights.Content != 0.4 {
		t.Errorf("Weights.Content = %f, want 0.4", ec.Weights.Content)
	}
	if ec.Weights.Collaborative != 0.6 {
		t.Errorf("Weights.Collaborative = %f, want 0.6", ec.Weights.Collaborative)
	}
	if ec.Limits.MaxK != 50 {
		t.Errorf("Limits.MaxK = %d, want 50", ec.Limits.MaxK)
	}
	if err := ec.Validate(); err != nil {
		t.Errorf("EngineConfig().Validate() error = %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FEEDENGINE_SERVER__PORT", "server.port"},
		{"FEEDENGINE_RECOMMEND__MAX_K", "recommend.max_k"},
		{"FEEDENGINE_INGEST__BASE_URL", "ingest.base_url"},
		{"FEEDENGINE_LOGGING__LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9100
recommend:
  content_weight: 0.25
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FEEDENGINE_SERVER__PORT", "9200")
	t.Setenv("FEEDENGINE_DATABASE__PATH", filepath.Join(dir, "feed.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Environment beats file beats defaults.
	if cfg.Server.Port != 9200 {
		t.Errorf("Server.Port = %d, want 9200 (env override)", cfg.Server.Port)
	}
	if cfg.Recommend.ContentWeight != 0.25 {
		t.Errorf("ContentWeight = %f, want 0.25 (file override)", cfg.Recommend.ContentWeight)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want default 15s", cfg.Server.ReadTimeout)
	}
}
