// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package models defines the domain types shared across the service:
// the post catalog, the interaction log, and the recommendation
// request/response shapes. It has no internal dependencies so the
// storage, ingest, model, and API layers can all import it freely.
package models

import (
	"strings"
	"time"
)

// UnknownTitle is the sentinel used for posts whose title is missing.
const UnknownTitle = "Unknown"

// InteractionType classifies user-post engagement events.
type InteractionType int

const (
	// InteractionViewed indicates the post was viewed.
	InteractionViewed InteractionType = iota
	// InteractionLiked indicates the post was liked.
	InteractionLiked
	// InteractionInspired indicates the post inspired the user.
	InteractionInspired
	// InteractionRated indicates the post received an explicit rating.
	InteractionRated
)

// String returns a human-readable name for the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionViewed:
		return "viewed"
	case InteractionLiked:
		return "liked"
	case InteractionInspired:
		return "inspired"
	case InteractionRated:
		return "rated"
	default:
		return "unknown"
	}
}

// ParseInteractionType maps the wire name of an interaction kind to its type.
// Returns false for unrecognized names.
func ParseInteractionType(s string) (InteractionType, bool) {
	switch strings.ToLower(s) {
	case "viewed":
		return InteractionViewed, true
	case "liked":
		return InteractionLiked, true
	case "inspired":
		return InteractionInspired, true
	case "rated":
		return InteractionRated, true
	default:
		return 0, false
	}
}

// Interaction represents one user-post engagement event.
// Multiple interactions may exist for the same (user, post) pair; the
// collaborative model collapses them to a single binary signal.
type Interaction struct {
	// UserID is the internal user identifier.
	UserID int64 `json:"user_id"`

	// PostID is the identifier of the engaged post.
	PostID int64 `json:"post_id"`

	// Type classifies the engagement.
	Type InteractionType `json:"interaction_type"`

	// RatingPercent is the rating value (0-100). Only meaningful when
	// Type is InteractionRated.
	RatingPercent float64 `json:"rating_percent,omitempty"`

	// Timestamp is when the interaction occurred.
	Timestamp time.Time `json:"timestamp"`
}

// Post represents a catalog item with metadata and aggregate engagement
// counters. Posts are produced offline and are immutable within a snapshot.
type Post struct {
	// ID is the unique post identifier.
	ID int64 `json:"id"`

	// Title is the free-text title. Missing titles default to UnknownTitle.
	Title string `json:"title"`

	// CategoryID identifies the post's category.
	CategoryID int64 `json:"category_id"`

	// CategoryName is the display name of the category.
	CategoryName string `json:"category_name,omitempty"`

	// MoodTags is a comma-joined list of mood labels. May be empty or
	// "Unknown" when no mood was derived.
	MoodTags string `json:"mood_tags,omitempty"`

	// Aggregate engagement counters, computed offline.
	TotalViews        int64   `json:"total_views"`
	TotalLikes        int64   `json:"total_likes"`
	TotalInspirations int64   `json:"total_inspirations"`
	TotalRatings      int64   `json:"total_ratings"`
	AverageRating     float64 `json:"average_rating"`
}

// Moods splits the comma-joined mood tag field into trimmed, lowercased
// labels. Empty and "Unknown" fields yield no labels.
func (p *Post) Moods() []string {
	if p.MoodTags == "" || strings.EqualFold(p.MoodTags, UnknownTitle) {
		return nil
	}
	parts := strings.Split(p.MoodTags, ",")
	moods := make([]string, 0, len(parts))
	for _, part := range parts {
		m := strings.ToLower(strings.TrimSpace(part))
		if m != "" {
			moods = append(moods, m)
		}
	}
	return moods
}

// HasMood reports whether the post's mood tag field contains the given
// mood as a case-insensitive substring.
func (p *Post) HasMood(mood string) bool {
	if mood == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.MoodTags), strings.ToLower(mood))
}

// User represents one account from the upstream feed platform. The
// engine itself only needs user ids; the full record is kept for
// operational visibility.
type User struct {
	// ID is the internal user identifier.
	ID int64 `json:"id"`

	// Username is the upstream account name.
	Username string `json:"username,omitempty"`
}

// ScoredPost is a single row of a ranked recommendation list.
type ScoredPost struct {
	// PostID identifies the recommended post.
	PostID int64 `json:"post_id"`

	// Score is the recommendation score. Scores are only comparable
	// within one ranked list.
	Score float64 `json:"score"`

	// Display enrichment from the catalog, populated when the post is
	// known to the current snapshot.
	Title      string `json:"title,omitempty"`
	CategoryID int64  `json:"category_id,omitempty"`
	MoodTags   string `json:"mood_tags,omitempty"`
}

// RankedList is an ordered, deduplicated sequence of scored posts,
// descending by score and truncated to the requested size.
type RankedList []ScoredPost

// PostIDs returns the post ids of the list in rank order.
func (l RankedList) PostIDs() []int64 {
	ids := make([]int64, len(l))
	for i, sp := range l {
		ids[i] = sp.PostID
	}
	return ids
}

// Filters narrows a recommendation result to a category, a mood, or both.
// Zero values mean "no filter".
type Filters struct {
	// CategoryID restricts results to a single category when non-zero.
	CategoryID int64 `json:"category_id,omitempty"`

	// Mood restricts results to posts whose mood tags contain this
	// label (case-insensitive substring match) when non-empty.
	Mood string `json:"mood,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.CategoryID == 0 && f.Mood == ""
}

// Request represents one recommendation request.
type Request struct {
	// UserID is the user to generate recommendations for.
	UserID int64 `json:"user_id"`

	// K is the number of recommendations to return.
	// A zero value means "use the engine's configured default".
	K int `json:"k,omitempty"`

	// Filters optionally narrows the result set.
	Filters Filters `json:"filters,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the outcome of a recommendation request.
type Response struct {
	// Posts is the final ranked list. May be empty.
	Posts RankedList `json:"posts"`

	// Metadata carries timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata carries timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// UserID is the user the recommendations are for.
	UserID int64 `json:"user_id"`

	// ColdStart indicates the result came from the cold-start model.
	ColdStart bool `json:"cold_start"`

	// Sources lists the models that contributed scores.
	Sources []string `json:"sources"`

	// SnapshotVersion is the version of the model snapshot used.
	SnapshotVersion int `json:"snapshot_version"`

	// BuiltAt is when that snapshot was built.
	BuiltAt time.Time `json:"built_at"`

	// LatencyMS is the total recommendation latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`
}
