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
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/inspirehub/feedengine/internal/models"
)

// BreakerClient wraps a FeedAPI with circuit breaker protection so a
// degraded upstream fails fast instead of tying up ingestion runs.
//
// The breaker uses real time for its interval and timeout windows.
// Tests should exercise the wrapped client directly.
type BreakerClient struct {
	inner FeedAPI
	cb    *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerClient wraps a feed API client with a circuit breaker.
// The circuit opens after a 60% failure rate over at least 10 requests
// and re-probes after one minute.
func NewBreakerClient(inner FeedAPI, logger zerolog.Logger) *BreakerClient {
	log := logger.With().Str("component", "ingest").Logger()

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "feed-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &BreakerClient{inner: inner, cb: cb}
}

// castResult type-casts a breaker result with error checking.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// GetPosts fetches one catalog page through the breaker.
func (b *BreakerClient) GetPosts(ctx context.Context, page, pageSize int) (*PostPage, error) {
	return castResult[PostPage](b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetPosts(ctx, page, pageSize)
	}))
}

// GetUsers fetches one user directory page through the breaker.
func (b *BreakerClient) GetUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	return castResult[UserPage](b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetUsers(ctx, page, pageSize)
	}))
}

// GetInteractions fetches one interaction feed page through the breaker.
func (b *BreakerClient) GetInteractions(ctx context.Context, kind models.InteractionType, page, pageSize int, since time.Time) (*InteractionPage, error) {
	return castResult[InteractionPage](b.cb.Execute(func() (interface{}, error) {
		return b.inner.GetInteractions(ctx, kind, page, pageSize, since)
	}))
}

var _ FeedAPI = (*BreakerClient)(nil)
var _ FeedAPI = (*Client)(nil)
