// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/inspirehub/feedengine/internal/models"
	"github.com/inspirehub/feedengine/internal/recommend/algorithms"
)

// DataProvider supplies the two tabular inputs the engine consumes.
// It is defined here rather than importing the storage layer so the
// engine depends only on the shared domain types.
type DataProvider interface {
	// GetPosts returns the post catalog with aggregate counters merged in.
	GetPosts(ctx context.Context) ([]models.Post, error)

	// GetInteractions returns the consolidated interaction log.
	GetInteractions(ctx context.Context) ([]models.Interaction, error)
}

// Snapshot is one fully-built, immutable generation of fitted models
// plus the catalog they were built from. Readers obtain a snapshot once
// per request and never observe a partially-built one: Rebuild
// constructs the next generation off to the side and publishes it with
// a single atomic pointer swap.
type Snapshot struct {
	Version int
	BuiltAt time.Time

	Content   *algorithms.ContentModel
	Collab    *algorithms.CollabModel
	ColdStart *algorithms.ColdStartModel

	catalog      map[int64]models.Post
	posts        int
	interactions int
	users        int
}

// Status describes the engine's current snapshot and request counters.
type Status struct {
	Ready           bool      `json:"ready"`
	SnapshotVersion int       `json:"snapshot_version"`
	BuiltAt         time.Time `json:"built_at,omitempty"`
	Posts           int       `json:"posts"`
	Interactions    int       `json:"interactions"`
	Users           int       `json:"users"`
	Rebuilding      bool      `json:"rebuilding"`
	LastRebuildMS   int64     `json:"last_rebuild_ms"`
	Requests        int64     `json:"requests"`
	Errors          int64     `json:"errors"`
	ColdStarts      int64     `json:"cold_starts"`
}

// Engine is the hybrid recommendation engine. It blends content
// similarity and collaborative filtering scores, falling back to
// popularity ranking for users with no interaction history. Safe for
// concurrent use: recommendation calls are pure reads against the
// published snapshot.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	provider DataProvider

	current atomic.Pointer[Snapshot]
	version atomic.Int32

	rebuildMu     sync.Mutex
	rebuilding    atomic.Bool
	lastRebuildMS atomic.Int64

	requestCount atomic.Int64
	errorCount   atomic.Int64
	coldStarts   atomic.Int64
}

// NewEngine creates a recommendation engine. The provider supplies the
// post catalog and interaction log at rebuild time.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger, provider DataProvider) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}

	return &Engine{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		provider: provider,
	}, nil
}

// Rebuild loads the current catalog and interaction log, fits a new
// model generation, and publishes it atomically. Concurrent readers
// keep the previous snapshot until the swap. Returns an error without
// publishing if loading or fitting fails; models fitted on zero rows
// are published anyway and log a warning.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.rebuildMu.Lock()
	defer e.rebuildMu.Unlock()

	e.rebuilding.Store(true)
	defer e.rebuilding.Store(false)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.config.Rebuild.Timeout)
	defer cancel()

	posts, interactions, err := e.loadInputs(ctx)
	if err != nil {
		return err
	}

	next := &Snapshot{
		Version:      int(e.version.Load()) + 1,
		Content:      algorithms.NewContentModel(e.config.Content),
		Collab:       algorithms.NewCollabModel(),
		ColdStart:    algorithms.NewColdStartModel(),
		posts:        len(posts),
		interactions: len(interactions),
	}

	// The two similarity matrices are independent; fit them in parallel.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.fitModel(next.Content.Fit(gctx, posts)) })
	g.Go(func() error { return e.fitModel(next.Collab.Fit(gctx, interactions)) })
	g.Go(func() error { return e.fitModel(next.ColdStart.Fit(gctx, posts)) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("fit models: %w", err)
	}

	next.catalog = make(map[int64]models.Post, len(posts))
	for _, p := range posts {
		next.catalog[p.ID] = p
	}
	next.users = next.Collab.Users()
	next.BuiltAt = time.Now()

	e.version.Store(int32(next.Version))
	e.current.Store(next)
	e.lastRebuildMS.Store(time.Since(start).Milliseconds())

	e.logger.Info().
		Int("version", next.Version).
		Int("posts", len(posts)).
		Int("interactions", len(interactions)).
		Int("dropped_interactions", next.Collab.Dropped()).
		Int64("duration_ms", e.lastRebuildMS.Load()).
		Msg("model snapshot published")

	return nil
}

// fitModel converts an empty-input fit into a warning so a sparse
// deployment still publishes a snapshot.
func (e *Engine) fitModel(err error) error {
	if err == nil {
		return nil
	}
	var empty *models.EmptyModelError
	if errors.As(err, &empty) {
		e.logger.Warn().Str("model", empty.Model).Msg("model fitted on zero rows")
		return nil
	}
	return err
}

// loadInputs fetches the two tabular inputs from the data provider.
func (e *Engine) loadInputs(ctx context.Context) ([]models.Post, []models.Interaction, error) {
	posts, err := e.provider.GetPosts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load posts: %w", err)
	}
	interactions, err := e.provider.GetInteractions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load interactions: %w", err)
	}
	return posts, interactions, nil
}

// Recommend generates a ranked feed for a user. Users with interaction
// history get the blended content + collaborative ranking; users without
// fall back to the cold-start model with the same filters. No internal
// failure escapes raw: everything except the deliberate cold-start
// branch surfaces as a RecommendationError.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req models.Request) (*models.Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	snap := e.current.Load()
	if snap == nil {
		return nil, models.ErrNotReady
	}

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Logger()

	if !snap.Collab.HasUser(req.UserID) {
		e.coldStarts.Add(1)
		posts, err := snap.ColdStart.Recommend(ctx, req.K, req.Filters)
		if err != nil {
			e.errorCount.Add(1)
			return nil, &models.RecommendationError{UserID: req.UserID, Err: err}
		}
		logger.Debug().Int("returned", len(posts)).Msg("cold-start recommendation")
		return e.buildResponse(req, snap, posts, true, []string{snap.ColdStart.Name()}, start), nil
	}

	posts, sources, err := e.blend(ctx, snap, req, logger)
	if err != nil {
		e.errorCount.Add(1)
		logger.Warn().Err(err).Msg("recommendation failed")
		return nil, &models.RecommendationError{UserID: req.UserID, Err: err}
	}

	logger.Debug().
		Int("returned", len(posts)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("recommendation complete")

	return e.buildResponse(req, snap, posts, false, sources, start), nil
}

// blend produces the weighted combination of the content and
// collaborative rankings for a user with history.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) blend(ctx context.Context, snap *Snapshot, req models.Request, logger zerolog.Logger) (models.RankedList, []string, error) {
	sources := make([]string, 0, 2)

	// The content branch is seeded by the post that best represents the
	// user's taste: their most recently interacted post.
	var contentSet models.RankedList
	if seed, ok := snap.Collab.SeedPost(req.UserID); ok {
		list, err := snap.Content.SimilarTo(ctx, seed, req.K, models.Filters{})
		switch {
		case err == nil:
			contentSet = list
			sources = append(sources, snap.Content.Name())
		case models.IsNoData(err):
			// Seed post missing from the catalog. Interaction logs can
			// reference posts the catalog no longer carries.
			logger.Warn().Int64("seed_post", seed).Msg("content seed not in catalog")
		default:
			return nil, nil, err
		}
	}

	collabSet, err := snap.Collab.Recommend(ctx, req.UserID, req.K)
	if err != nil {
		return nil, nil, err
	}
	if len(collabSet) > 0 {
		sources = append(sources, snap.Collab.Name())
	}

	minMaxNormalize(contentSet)
	applyWeight(contentSet, e.config.Weights.Content)
	minMaxNormalize(collabSet)
	applyWeight(collabSet, e.config.Weights.Collaborative)

	contentSet = applyFilters(contentSet, req.Filters, snap.catalog)
	collabSet = applyFilters(collabSet, req.Filters, snap.catalog)

	merged := truncate(combine(contentSet, collabSet), req.K)
	enrich(merged, snap.catalog)
	return merged, sources, nil
}

// SimilarTo ranks catalog posts by content resemblance to the given
// post. Serves the related-posts endpoint directly, bypassing the blend.
func (e *Engine) SimilarTo(ctx context.Context, postID int64, topN int, filters models.Filters) (models.RankedList, error) {
	snap := e.current.Load()
	if snap == nil {
		return nil, models.ErrNotReady
	}
	if topN <= 0 || topN > e.config.Limits.MaxK {
		topN = e.config.Limits.DefaultK
	}
	return snap.Content.SimilarTo(ctx, postID, topN, filters)
}

// Ready reports whether a snapshot has been published.
func (e *Engine) Ready() bool {
	return e.current.Load() != nil
}

// Snapshot returns the currently published snapshot, or nil before the
// first rebuild.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Status returns the engine's current snapshot and request counters.
func (e *Engine) Status() Status {
	st := Status{
		Rebuilding:    e.rebuilding.Load(),
		LastRebuildMS: e.lastRebuildMS.Load(),
		Requests:      e.requestCount.Load(),
		Errors:        e.errorCount.Load(),
		ColdStarts:    e.coldStarts.Load(),
	}
	if snap := e.current.Load(); snap != nil {
		st.Ready = true
		st.SnapshotVersion = snap.Version
		st.BuiltAt = snap.BuiltAt
		st.Posts = snap.posts
		st.Interactions = snap.interactions
		st.Users = snap.users
	}
	return st
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// prepareRequest applies defaults and generates a request id if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req models.Request) models.Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.K <= 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}
	return req
}

// buildResponse assembles the final response with snapshot metadata.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req models.Request, snap *Snapshot, posts models.RankedList, coldStart bool, sources []string, start time.Time) *models.Response {
	if posts == nil {
		posts = models.RankedList{}
	}
	return &models.Response{
		Posts: posts,
		Metadata: models.ResponseMetadata{
			RequestID:       req.RequestID,
			UserID:          req.UserID,
			ColdStart:       coldStart,
			Sources:         sources,
			SnapshotVersion: snap.Version,
			BuiltAt:         snap.BuiltAt,
			LatencyMS:       time.Since(start).Milliseconds(),
		},
	}
}
