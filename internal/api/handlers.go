// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspirehub/feedengine/internal/cache"
	"github.com/inspirehub/feedengine/internal/logging"
	"github.com/inspirehub/feedengine/internal/metrics"
	"github.com/inspirehub/feedengine/internal/models"
	"github.com/inspirehub/feedengine/internal/recommend"
)

// Recommender is the engine surface the handlers consume. Implemented
// by recommend.Engine in production and by fakes in tests.
type Recommender interface {
	Recommend(ctx context.Context, req models.Request) (*models.Response, error)
	SimilarTo(ctx context.Context, postID int64, topN int, filters models.Filters) (models.RankedList, error)
	Ready() bool
	Status() recommend.Status
}

// Handler holds the HTTP endpoint implementations.
type Handler struct {
	engine    Recommender
	feedCache *cache.Cache[*models.Response]
}

// NewHandler creates the endpoint handler set.
func NewHandler(engine Recommender) *Handler {
	return &Handler{engine: engine}
}

// EnableFeedCache turns on response caching for the feed endpoint.
// Cache keys embed the snapshot version, so a rebuild invalidates
// every cached ranking without an explicit flush.
func (h *Handler) EnableFeedCache(ttl time.Duration) {
	h.feedCache = cache.New[*models.Response](ttl)
}

// FeedRequest is the validated query surface of the feed endpoint.
type FeedRequest struct {
	UserID     int64  `validate:"required,min=1"`
	K          int    `validate:"min=0,max=1000"`
	CategoryID int64  `validate:"min=0"`
	Mood       string `validate:"omitempty,max=64"`
}

// Feed serves GET /api/v1/feed: the personalized ranked feed for a
// user, blending content and collaborative scores or falling back to
// the cold-start ranking for unknown users.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	req := FeedRequest{
		// The upstream API calls this parameter "username" even though
		// it carries the numeric user id; we keep the name for parity.
		UserID:     getInt64Param(r, "username", 0),
		K:          getIntParam(r, "k", 0),
		CategoryID: getInt64Param(r, "category_id", 0),
		Mood:       r.URL.Query().Get("mood"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	var cacheKey string
	if h.feedCache != nil {
		cacheKey = fmt.Sprintf("%d:%d:%d:%s:%d",
			req.UserID, req.K, req.CategoryID, req.Mood,
			h.engine.Status().SnapshotVersion)
		if cached, ok := h.feedCache.Get(cacheKey); ok {
			respondData(w, r, http.StatusOK, cached)
			return
		}
	}

	start := time.Now()
	resp, err := h.engine.Recommend(r.Context(), models.Request{
		UserID: req.UserID,
		K:      req.K,
		Filters: models.Filters{
			CategoryID: req.CategoryID,
			Mood:       req.Mood,
		},
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
	if err != nil {
		metrics.RecommendationsTotal.WithLabelValues("error").Inc()
		h.respondEngineError(w, r, err)
		return
	}

	outcome := "blended"
	if resp.Metadata.ColdStart {
		outcome = "cold_start"
	}
	metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())

	if h.feedCache != nil {
		h.feedCache.Set(cacheKey, resp)
	}
	respondData(w, r, http.StatusOK, resp)
}

// Similar serves GET /api/v1/posts/{id}/similar: posts ranked by
// content resemblance to the given post.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || postID <= 0 {
		respondError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "post id must be a positive integer", nil)
		return
	}

	filters := models.Filters{
		CategoryID: getInt64Param(r, "category_id", 0),
		Mood:       r.URL.Query().Get("mood"),
	}

	posts, err := h.engine.SimilarTo(r.Context(), postID, getIntParam(r, "k", 0), filters)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	respondData(w, r, http.StatusOK, posts)
}

// respondEngineError maps engine errors onto HTTP statuses: not-ready
// means the service is still warming up, no-data means the requested
// entity is unknown, everything else is an internal failure.
func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotReady):
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "model snapshot not built yet", err)
	case models.IsNoData(err):
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "no data for the requested entity", err)
	default:
		respondError(w, r, http.StatusInternalServerError, "RECOMMENDATION_FAILED", "recommendation failed", err)
	}
}

// HealthLive serves the liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady serves the readiness probe. Ready means a model snapshot
// has been published and the engine can answer requests.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if !h.engine.Ready() {
		respondError(w, r, http.StatusServiceUnavailable, "NOT_READY", "model snapshot not built yet", nil)
		return
	}
	respondData(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// Status serves GET /api/v1/status: snapshot metadata and counters.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondData(w, r, http.StatusOK, h.engine.Status())
}
