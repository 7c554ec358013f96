// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/inspirehub/feedengine/internal/config"
	"github.com/inspirehub/feedengine/internal/models"
	"github.com/inspirehub/feedengine/internal/recommend"
)

// fakeEngine returns canned responses for handler tests.
type fakeEngine struct {
	ready        bool
	recommendErr error
	similarErr   error
	coldStart    bool
	lastRequest  models.Request
	recommends   int
}

func (f *fakeEngine) Recommend(ctx context.Context, req models.Request) (*models.Response, error) {
	f.lastRequest = req
	f.recommends++
	if f.recommendErr != nil {
		return nil, f.recommendErr
	}
	return &models.Response{
		Posts: models.RankedList{{PostID: 7, Score: 0.9, Title: "Sunset tips"}},
		Metadata: models.ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			ColdStart: f.coldStart,
		},
	}, nil
}

func (f *fakeEngine) SimilarTo(ctx context.Context, postID int64, topN int, filters models.Filters) (models.RankedList, error) {
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	return models.RankedList{{PostID: 3, Score: 0.8}}, nil
}

func (f *fakeEngine) Ready() bool { return f.ready }

func (f *fakeEngine) Status() recommend.Status {
	return recommend.Status{Ready: f.ready, SnapshotVersion: 2, Posts: 4}
}

func newTestServer(engine *fakeEngine) *httptest.Server {
	rt := NewRouter(NewHandler(engine), &config.ServerConfig{})
	return httptest.NewServer(rt.Setup())
}

func decodeEnvelope(t *testing.T, resp *http.Response) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var env APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestFeedEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		engine     *fakeEngine
		wantStatus int
		wantCode   string
	}{
		{
			name:       "blended result",
			query:      "?username=1&k=5",
			engine:     &fakeEngine{ready: true},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing user id",
			query:      "",
			engine:     &fakeEngine{ready: true},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "k over limit",
			query:      "?username=1&k=9999",
			engine:     &fakeEngine{ready: true},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "engine not ready",
			query:      "?username=1",
			engine:     &fakeEngine{recommendErr: models.ErrNotReady},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "NOT_READY",
		},
		{
			name:  "no data maps to not found",
			query: "?username=1",
			engine: &fakeEngine{recommendErr: &models.RecommendationError{
				UserID: 1,
				Err:    &models.PostNotFoundError{PostID: 42},
			}},
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.engine)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/api/v1/feed" + tt.query)
			if err != nil {
				t.Fatalf("GET /feed: %v", err)
			}
			env := decodeEnvelope(t, resp)

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Errorf("error = %+v, want code %q", env.Error, tt.wantCode)
				}
			}
		})
	}
}

func TestFeedPassesFilters(t *testing.T) {
	engine := &fakeEngine{ready: true}
	srv := newTestServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/feed?username=9&k=3&category_id=2&mood=calm")
	if err != nil {
		t.Fatalf("GET /feed: %v", err)
	}
	resp.Body.Close()

	got := engine.lastRequest
	if got.UserID != 9 || got.K != 3 {
		t.Errorf("request = %+v", got)
	}
	if got.Filters.CategoryID != 2 || got.Filters.Mood != "calm" {
		t.Errorf("filters = %+v", got.Filters)
	}
	if got.RequestID == "" {
		t.Error("request id was not propagated to the engine")
	}
}

func TestFeedCacheSkipsEngine(t *testing.T) {
	engine := &fakeEngine{ready: true}
	handler := NewHandler(engine)
	handler.EnableFeedCache(time.Minute)
	rt := NewRouter(handler, &config.ServerConfig{})
	srv := httptest.NewServer(rt.Setup())
	defer srv.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/api/v1/feed?username=1&k=5")
		if err != nil {
			t.Fatalf("GET /feed: %v", err)
		}
		resp.Body.Close()
	}

	if engine.recommends != 1 {
		t.Errorf("engine calls = %d, want 1 (repeats served from cache)", engine.recommends)
	}
}

func TestSimilarEndpoint(t *testing.T) {
	t.Run("ranked result", func(t *testing.T) {
		srv := newTestServer(&fakeEngine{ready: true})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/v1/posts/3/similar?k=5")
		if err != nil {
			t.Fatalf("GET /similar: %v", err)
		}
		env := decodeEnvelope(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if env.Status != "success" {
			t.Errorf("envelope status = %q", env.Status)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		srv := newTestServer(&fakeEngine{ready: true})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/v1/posts/abc/similar")
		if err != nil {
			t.Fatalf("GET /similar: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("unknown post", func(t *testing.T) {
		srv := newTestServer(&fakeEngine{
			ready:      true,
			similarErr: &models.PostNotFoundError{PostID: 999},
		})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/v1/posts/999/similar")
		if err != nil {
			t.Fatalf("GET /similar: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("live always ok", func(t *testing.T) {
		srv := newTestServer(&fakeEngine{ready: false})
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/api/v1/health/live")
		if err != nil {
			t.Fatalf("GET /health/live: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
	})

	t.Run("ready follows engine", func(t *testing.T) {
		for _, ready := range []bool{true, false} {
			srv := newTestServer(&fakeEngine{ready: ready})
			resp, err := http.Get(srv.URL + "/api/v1/health/ready")
			if err != nil {
				t.Fatalf("GET /health/ready: %v", err)
			}
			resp.Body.Close()
			srv.Close()

			want := http.StatusOK
			if !ready {
				want = http.StatusServiceUnavailable
			}
			if resp.StatusCode != want {
				t.Errorf("ready=%v: status = %d, want %d", ready, resp.StatusCode, want)
			}
		}
	})
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(&fakeEngine{ready: true})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	env := decodeEnvelope(t, resp)

	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", env.Data)
	}
	if data["snapshot_version"] != float64(2) {
		t.Errorf("snapshot_version = %v", data["snapshot_version"])
	}
}

func TestCORSHeaders(t *testing.T) {
	t.Run("configured origin is allowed", func(t *testing.T) {
		rt := NewRouter(NewHandler(&fakeEngine{ready: true}), &config.ServerConfig{
			CORSAllowedOrigins: []string{"https://app.inspirehub.example"},
		})
		srv := httptest.NewServer(rt.Setup())
		defer srv.Close()

		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/status", http.NoBody)
		req.Header.Set("Origin", "https://app.inspirehub.example")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /status: %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://app.inspirehub.example" {
			t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
		}
	})

	t.Run("no origins disables the middleware", func(t *testing.T) {
		srv := newTestServer(&fakeEngine{ready: true})
		defer srv.Close()

		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/status", http.NoBody)
		req.Header.Set("Origin", "https://anywhere.example")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET /status: %v", err)
		}
		resp.Body.Close()

		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(&fakeEngine{ready: true})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/status", http.NoBody)
	req.Header.Set("X-Request-ID", "trace-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("X-Request-ID"); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want echoed value", got)
	}
}
