// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package services provides suture service wrappers around FeedEngine's
// long-lived components.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/metrics"
	"github.com/inspirehub/feedengine/internal/recommend"
)

// RebuildEngine is the engine surface the rebuild scheduler needs.
type RebuildEngine interface {
	Rebuild(ctx context.Context) error
	Status() recommend.Status
}

// RebuildServiceConfig holds the rebuild schedule.
type RebuildServiceConfig struct {
	// OnStartup triggers a rebuild as soon as the service starts.
	OnStartup bool

	// Interval is how often to rebuild the snapshot.
	Interval time.Duration

	// Timeout bounds a single rebuild.
	Timeout time.Duration
}

// RebuildService periodically rebuilds the engine's model snapshot so
// recommendations track new posts and interactions.
type RebuildService struct {
	engine RebuildEngine
	config RebuildServiceConfig
	logger zerolog.Logger
	name   string
}

// NewRebuildService creates the rebuild scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRebuildService(engine RebuildEngine, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	return &RebuildService{
		engine: engine,
		config: cfg,
		logger: logger.With().Str("service", "rebuild").Logger(),
		name:   "rebuild-service",
	}
}

// Serve implements suture.Service. It rebuilds on startup when
// configured and then on every interval tick until cancelled. A failed
// rebuild keeps the previous snapshot and is retried on schedule.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("on_startup", s.config.OnStartup).
		Dur("interval", s.config.Interval).
		Msg("rebuild service starting")

	if s.config.OnStartup {
		if err := s.rebuild(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("startup rebuild failed (will retry on schedule)")
		}
	}

	interval := s.config.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("rebuild service shutting down")
			return ctx.Err()

		case <-ticker.C:
			if err := s.rebuild(ctx); err != nil {
				s.logger.Warn().Err(err).Msg("scheduled rebuild failed")
			}
		}
	}
}

// rebuild runs one rebuild cycle and records its outcome.
func (s *RebuildService) rebuild(ctx context.Context) error {
	timeout := s.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	rebuildCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := s.engine.Rebuild(rebuildCtx)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RebuildsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RebuildsTotal.WithLabelValues("success").Inc()
	metrics.RebuildDuration.Observe(elapsed.Seconds())

	status := s.engine.Status()
	metrics.SnapshotVersion.Set(float64(status.SnapshotVersion))
	metrics.SnapshotPosts.Set(float64(status.Posts))
	metrics.SnapshotUsers.Set(float64(status.Users))

	s.logger.Info().
		Int("snapshot_version", status.SnapshotVersion).
		Dur("elapsed", elapsed).
		Msg("snapshot rebuilt")
	return nil
}

// String returns the service name for supervisor logs.
func (s *RebuildService) String() string {
	return s.name
}
