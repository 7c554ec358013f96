// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package ingest pulls the post catalog, the user directory, and the
// four interaction feeds from the InspireHub feed API. The client
// paginates every collection, throttles outgoing calls with a token
// bucket, and sits behind a circuit breaker so a degraded upstream
// cannot stall the rest of the service.
package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/inspirehub/feedengine/internal/config"
	"github.com/inspirehub/feedengine/internal/models"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// tokenHeader carries the API token on authenticated requests.
const tokenHeader = "Flic-Token"

// resonanceAlgorithm selects the upstream scoring variant the public
// interaction feeds are served with. The feed endpoints reject requests
// without it.
const resonanceAlgorithm = "resonance_algorithm_cjsvervb7dbhss8bdrj89s44jfjdbsjd0xnjkbvuire8zcjwerui3njfbvsujc5if"

// Upstream endpoint paths. The catalog and user directory require the
// token header; the interaction feeds are public.
const (
	pathCatalog  = "/posts/summary/get"
	pathUsers    = "/users/get_all"
	pathViewed   = "/posts/view"
	pathLiked    = "/posts/like"
	pathInspired = "/posts/inspire"
	pathRated    = "/posts/rating"
)

// PostDTO is one catalog entry as the feed API serializes it.
type PostDTO struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	CategoryID   int64    `json:"category_id"`
	CategoryName string   `json:"category_name"`
	Moods        []string `json:"moods"`
}

// UserDTO is one account as the feed API serializes it.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// InteractionDTO is one engagement event as a feed endpoint serializes
// it. The interaction kind is implied by the endpoint the row came
// from, not carried on the row itself.
type InteractionDTO struct {
	UserID        int64   `json:"user_id"`
	PostID        int64   `json:"post_id"`
	RatingPercent float64 `json:"rating_percent"`
	CreatedAt     string  `json:"created_at"`
}

// PostPage is one page of the paginated catalog endpoint.
type PostPage struct {
	Data       []PostDTO `json:"posts"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// UserPage is one page of the paginated user directory endpoint.
type UserPage struct {
	Data       []UserDTO `json:"users"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// InteractionPage is one page of a paginated interaction feed. The
// upstream keys interaction rows under "posts" on every feed endpoint.
type InteractionPage struct {
	Data       []InteractionDTO `json:"posts"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
}

// FeedAPI is the upstream surface the syncer consumes. Implemented by
// Client for production and by the circuit breaker wrapper.
type FeedAPI interface {
	GetPosts(ctx context.Context, page, pageSize int) (*PostPage, error)
	GetUsers(ctx context.Context, page, pageSize int) (*UserPage, error)
	GetInteractions(ctx context.Context, kind models.InteractionType, page, pageSize int, since time.Time) (*InteractionPage, error)
}

// Client talks to the feed API over HTTP. Requests pass through a
// shared rate limiter, so the client is safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a feed API client from the ingestion config.
func NewClient(cfg *config.IngestConfig) *Client {
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// GetPosts fetches one page of the post catalog.
func (c *Client) GetPosts(ctx context.Context, page, pageSize int) (*PostPage, error) {
	var out PostPage
	if err := c.getJSON(ctx, pathCatalog, pageParams(page, pageSize), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUsers fetches one page of the user directory.
func (c *Client) GetUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	var out UserPage
	if err := c.getJSON(ctx, pathUsers, pageParams(page, pageSize), true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetInteractions fetches one page of the feed for the given
// interaction kind. A non-zero since bound restricts the page to events
// created after it.
func (c *Client) GetInteractions(ctx context.Context, kind models.InteractionType, page, pageSize int, since time.Time) (*InteractionPage, error) {
	path, err := interactionPath(kind)
	if err != nil {
		return nil, err
	}

	params := pageParams(page, pageSize)
	params.Set("resonance_algorithm", resonanceAlgorithm)
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	var out InteractionPage
	if err := c.getJSON(ctx, path, params, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// interactionPath maps an interaction kind to its feed endpoint.
func interactionPath(kind models.InteractionType) (string, error) {
	switch kind {
	case models.InteractionViewed:
		return pathViewed, nil
	case models.InteractionLiked:
		return pathLiked, nil
	case models.InteractionInspired:
		return pathInspired, nil
	case models.InteractionRated:
		return pathRated, nil
	default:
		return "", fmt.Errorf("no feed endpoint for interaction kind %d", kind)
	}
}

func pageParams(page, pageSize int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	return params
}

// getJSON performs a GET against the given path and decodes the JSON
// body into result.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, authed bool, result interface{}) error {
	resp, err := c.do(ctx, path, params, authed)
	if err != nil {
		return fmt.Errorf("feed API %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("feed API %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode feed API %s response: %w", path, err)
	}
	return nil
}

// do waits for a rate limiter token and issues the request.
func (c *Client) do(ctx context.Context, path string, params url.Values, authed bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if authed && c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}

	return c.client.Do(req)
}

// readBodyForError reads up to maxErrorBodySize bytes for diagnostics.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// toPost maps a catalog DTO to the domain type. Mood tags are joined
// into the comma-separated form the content model tokenizes.
func (d PostDTO) toPost() models.Post {
	title := d.Title
	if title == "" {
		title = models.UnknownTitle
	}
	return models.Post{
		ID:           d.ID,
		Title:        title,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		MoodTags:     strings.Join(d.Moods, ","),
	}
}

// toUser maps an account DTO to the domain type.
func (d UserDTO) toUser() models.User {
	return models.User{ID: d.ID, Username: d.Username}
}

// toInteraction maps an event DTO to the domain type, tagging it with
// the kind of the feed it was read from.
func (d InteractionDTO) toInteraction(kind models.InteractionType) models.Interaction {
	var ts time.Time
	if d.CreatedAt != "" {
		ts, _ = time.Parse(time.RFC3339, d.CreatedAt)
	}

	return models.Interaction{
		UserID:        d.UserID,
		PostID:        d.PostID,
		Type:          kind,
		RatingPercent: d.RatingPercent,
		Timestamp:     ts,
	}
}
