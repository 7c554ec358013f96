// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package recommend

import (
	"fmt"
	"time"

	"github.com/inspirehub/feedengine/internal/recommend/algorithms"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of the two personalized
	// sources. Weights are applied as-is after per-source normalization;
	// they do not need to sum to 1.0.
	Weights BlendWeights `json:"weights"`

	// Content contains parameters for the content similarity model.
	Content algorithms.ContentConfig `json:"content"`

	// Rebuild contains snapshot rebuild schedule parameters.
	Rebuild RebuildConfig `json:"rebuild"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`
}

// BlendWeights defines the relative contribution of each score source.
type BlendWeights struct {
	// Content is the weight for the content similarity model.
	// Default: 0.3.
	Content float64 `json:"content"`

	// Collaborative is the weight for the collaborative filtering model.
	// Default: 0.7.
	Collaborative float64 `json:"collaborative"`
}

// RebuildConfig contains snapshot rebuild schedule parameters.
type RebuildConfig struct {
	// OnStartup triggers a snapshot build when the service starts.
	// Default: true.
	OnStartup bool `json:"on_startup"`

	// Interval is the time between scheduled rebuilds.
	// Default: 6h.
	Interval time.Duration `json:"interval"`

	// Timeout is the maximum time allowed for one rebuild.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: BlendWeights{
			Content:       0.3,
			Collaborative: 0.7,
		},
		Content: algorithms.ContentConfig{
			MoodDamping:    0.5,
			MinTokenLength: 2,
		},
		Rebuild: RebuildConfig{
			OnStartup: true,
			Interval:  6 * time.Hour,
			Timeout:   10 * time.Minute,
		},
		Limits: LimitsConfig{
			DefaultK: 10,
			MaxK:     100,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Weights.Content < 0 {
		return fmt.Errorf("weights.content must be non-negative, got %f", c.Weights.Content)
	}
	if c.Weights.Collaborative < 0 {
		return fmt.Errorf("weights.collaborative must be non-negative, got %f", c.Weights.Collaborative)
	}
	if c.Weights.Content == 0 && c.Weights.Collaborative == 0 {
		return fmt.Errorf("at least one blend weight must be positive")
	}
	if c.Content.MoodDamping < 0 || c.Content.MoodDamping > 1 {
		return fmt.Errorf("content.mood_damping must be in [0, 1], got %f", c.Content.MoodDamping)
	}
	if c.Rebuild.Timeout <= 0 {
		return fmt.Errorf("rebuild.timeout must be positive, got %v", c.Rebuild.Timeout)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d",
			c.Limits.MaxK, c.Limits.DefaultK)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	cp := *c
	return &cp
}
