// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package metrics defines the Prometheus instrumentation for FeedEngine:
// API latency and throughput, recommendation outcomes, snapshot rebuild
// cost, ingestion progress, and store query performance.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedengine_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Recommendation metrics.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		},
		[]string{"outcome"}, // "blended", "cold_start", "error"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedengine_recommendation_duration_seconds",
			Help:    "End-to-end recommendation computation time in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	// Snapshot rebuild metrics.
	RebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_rebuilds_total",
			Help: "Total number of model snapshot rebuilds",
		},
		[]string{"result"}, // "success", "error"
	)

	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedengine_rebuild_duration_seconds",
			Help:    "Snapshot rebuild duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedengine_snapshot_version",
			Help: "Version of the currently published model snapshot",
		},
	)

	SnapshotPosts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedengine_snapshot_posts",
			Help: "Posts in the currently published snapshot",
		},
	)

	SnapshotUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedengine_snapshot_users",
			Help: "Distinct users in the currently published snapshot",
		},
	)

	// Ingestion metrics.
	IngestPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_ingest_pages_total",
			Help: "Total number of feed API pages fetched",
		},
		[]string{"result"}, // "success", "error"
	)

	IngestPostsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedengine_ingest_posts_total",
			Help: "Total number of posts received from the feed API",
		},
	)

	IngestUsersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedengine_ingest_users_total",
			Help: "Total number of users received from the feed API",
		},
	)

	IngestInteractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_ingest_interactions_total",
			Help: "Total number of interaction events received from the feed API",
		},
		[]string{"kind"}, // "viewed", "liked", "inspired", "rated"
	)

	// Store metrics.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedengine_store_query_duration_seconds",
			Help:    "SQLite query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedengine_store_query_errors_total",
			Help: "Total number of SQLite query errors",
		},
		[]string{"operation"},
	)
)

// ObserveAPIRequest records one completed API request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveStoreQuery records one store query with its outcome.
func ObserveStoreQuery(operation string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(operation).Inc()
	}
}
