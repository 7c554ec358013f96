// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inspirehub/feedengine/internal/logging"
	"github.com/inspirehub/feedengine/internal/metrics"
)

// RequestID assigns each request an id, stores it with a request-scoped
// logger in the context, and echoes it in the X-Request-ID header.
// Client-supplied ids are honored so traces can span services.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), id)
		ctx = logging.ContextWithLogger(ctx, logging.With().Str("request_id", id).Logger())
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument records request metrics and an access log line per request.
// The chi route pattern is used as the endpoint label so path
// parameters do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		elapsed := time.Since(start)
		metrics.ObserveAPIRequest(r.Method, endpoint, rec.status, elapsed)

		logging.Ctx(r.Context()).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request handled")
	})
}
