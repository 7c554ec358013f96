// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/config"
	"github.com/inspirehub/feedengine/internal/metrics"
	"github.com/inspirehub/feedengine/internal/models"
)

// CatalogStore persists ingested rows. Implemented by the SQLite store.
type CatalogStore interface {
	UpsertPosts(ctx context.Context, posts []models.Post) error
	UpsertUsers(ctx context.Context, users []models.User) error
	InsertInteractions(ctx context.Context, interactions []models.Interaction) (int, error)
}

// interactionKinds lists the four upstream feeds one sync run drains.
var interactionKinds = []models.InteractionType{
	models.InteractionViewed,
	models.InteractionLiked,
	models.InteractionInspired,
	models.InteractionRated,
}

// Syncer runs periodic ingestion: it pages through the feed API's post
// catalog, user directory, and the four interaction feeds, and writes
// everything into the store. Interaction fetches are bounded by the
// previous successful run's start time, so replayed events are
// deduplicated by the store's unique index rather than re-fetched
// wholesale.
type Syncer struct {
	api    FeedAPI
	store  CatalogStore
	cfg    *config.IngestConfig
	logger zerolog.Logger

	lastSync time.Time
}

// NewSyncer wires a feed API client to the store.
func NewSyncer(api FeedAPI, store CatalogStore, cfg *config.IngestConfig, logger zerolog.Logger) *Syncer {
	return &Syncer{
		api:    api,
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// Run syncs immediately and then on every interval tick until the
// context is cancelled. Errors are logged and the loop keeps going; a
// single failed run must not stop future ones.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		s.logger.Error().Err(err).Msg("initial ingestion run failed")
	}

	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil {
				s.logger.Error().Err(err).Msg("ingestion run failed")
			}
		}
	}
}

// Sync performs one full ingestion run.
func (s *Syncer) Sync(ctx context.Context) error {
	started := time.Now()

	posts, err := s.syncPosts(ctx)
	if err != nil {
		return fmt.Errorf("sync posts: %w", err)
	}

	users, err := s.syncUsers(ctx)
	if err != nil {
		return fmt.Errorf("sync users: %w", err)
	}

	inserted := 0
	for _, kind := range interactionKinds {
		n, err := s.syncInteractions(ctx, kind, s.lastSync)
		if err != nil {
			return fmt.Errorf("sync %s interactions: %w", kind, err)
		}
		inserted += n
	}

	s.lastSync = started
	s.logger.Info().
		Int("posts", posts).
		Int("users", users).
		Int("interactions", inserted).
		Dur("elapsed", time.Since(started)).
		Msg("ingestion run complete")
	return nil
}

func (s *Syncer) syncPosts(ctx context.Context) (int, error) {
	total := 0
	for page := 1; s.withinPageCap(page); page++ {
		resp, err := s.api.GetPosts(ctx, page, s.pageSize())
		if err != nil {
			metrics.IngestPagesTotal.WithLabelValues("error").Inc()
			return total, err
		}
		metrics.IngestPagesTotal.WithLabelValues("success").Inc()

		if len(resp.Data) == 0 {
			break
		}

		batch := make([]models.Post, 0, len(resp.Data))
		for _, dto := range resp.Data {
			if dto.ID <= 0 {
				continue
			}
			batch = append(batch, dto.toPost())
		}

		if err := s.store.UpsertPosts(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
		metrics.IngestPostsTotal.Add(float64(len(batch)))

		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}
	return total, nil
}

func (s *Syncer) syncUsers(ctx context.Context) (int, error) {
	total := 0
	for page := 1; s.withinPageCap(page); page++ {
		resp, err := s.api.GetUsers(ctx, page, s.pageSize())
		if err != nil {
			metrics.IngestPagesTotal.WithLabelValues("error").Inc()
			return total, err
		}
		metrics.IngestPagesTotal.WithLabelValues("success").Inc()

		if len(resp.Data) == 0 {
			break
		}

		batch := make([]models.User, 0, len(resp.Data))
		for _, dto := range resp.Data {
			if dto.ID <= 0 {
				continue
			}
			batch = append(batch, dto.toUser())
		}

		if err := s.store.UpsertUsers(ctx, batch); err != nil {
			return total, err
		}
		total += len(batch)
		metrics.IngestUsersTotal.Add(float64(len(batch)))

		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}
	return total, nil
}

func (s *Syncer) syncInteractions(ctx context.Context, kind models.InteractionType, since time.Time) (int, error) {
	total := 0
	dropped := 0
	for page := 1; s.withinPageCap(page); page++ {
		resp, err := s.api.GetInteractions(ctx, kind, page, s.pageSize(), since)
		if err != nil {
			metrics.IngestPagesTotal.WithLabelValues("error").Inc()
			return total, err
		}
		metrics.IngestPagesTotal.WithLabelValues("success").Inc()

		if len(resp.Data) == 0 {
			break
		}

		batch := make([]models.Interaction, 0, len(resp.Data))
		for _, dto := range resp.Data {
			in := dto.toInteraction(kind)
			if in.UserID <= 0 || in.PostID <= 0 {
				dropped++
				continue
			}
			batch = append(batch, in)
		}

		inserted, err := s.store.InsertInteractions(ctx, batch)
		if err != nil {
			return total, err
		}
		total += inserted
		metrics.IngestInteractionsTotal.WithLabelValues(kind.String()).Add(float64(len(batch)))

		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}

	if dropped > 0 {
		s.logger.Warn().
			Stringer("kind", kind).
			Int("dropped", dropped).
			Msg("interaction events dropped during ingestion")
	}
	return total, nil
}

func (s *Syncer) pageSize() int {
	if s.cfg.PageSize <= 0 {
		return 1000
	}
	return s.cfg.PageSize
}

func (s *Syncer) withinPageCap(page int) bool {
	return s.cfg.MaxPages <= 0 || page <= s.cfg.MaxPages
}
