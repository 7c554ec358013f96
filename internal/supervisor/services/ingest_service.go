// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package services

import (
	"context"

	"github.com/rs/zerolog"
)

// IngestRunner is the ingestion loop surface. Implemented by
// ingest.Syncer, whose Run blocks until the context is cancelled.
type IngestRunner interface {
	Run(ctx context.Context) error
}

// IngestService runs the feed API ingestion loop under supervision.
type IngestService struct {
	runner IngestRunner
	logger zerolog.Logger
	name   string
}

// NewIngestService wraps the ingestion loop as a supervised service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIngestService(runner IngestRunner, logger zerolog.Logger) *IngestService {
	return &IngestService{
		runner: runner,
		logger: logger.With().Str("service", "ingest").Logger(),
		name:   "ingest-service",
	}
}

// Serve implements suture.Service.
func (s *IngestService) Serve(ctx context.Context) error {
	s.logger.Info().Msg("ingest service starting")
	err := s.runner.Run(ctx)
	s.logger.Info().Msg("ingest service stopped")
	return err
}

// String returns the service name for supervisor logs.
func (s *IngestService) String() string {
	return s.name
}
