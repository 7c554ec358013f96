// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned when a recommendation is requested before the
// first model snapshot has been published.
var ErrNotReady = errors.New("no model snapshot published yet")

// SchemaError indicates a required identity column is missing from an
// input table. It is fatal to model construction and not recoverable
// locally; missing optional columns never produce a SchemaError.
type SchemaError struct {
	// Table is the logical input table name ("posts" or "interactions").
	Table string

	// Missing lists the absent required columns.
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %q is missing required columns: %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// PostNotFoundError indicates a query referenced a post id absent from
// the fitted catalog. Callers should treat it as an empty result or a
// 404-equivalent.
type PostNotFoundError struct {
	PostID int64
}

func (e *PostNotFoundError) Error() string {
	return fmt.Sprintf("post %d not found in catalog", e.PostID)
}

// EmptyModelError indicates a model was fitted on zero rows. Queries
// against such a model yield empty results rather than failing.
type EmptyModelError struct {
	// Model names the model that has no data ("content", "collaborative",
	// "coldstart").
	Model string
}

func (e *EmptyModelError) Error() string {
	return fmt.Sprintf("%s model fitted on zero rows", e.Model)
}

// RecommendationError wraps any internal failure that occurs while
// blending scores for a single user. It carries the original cause.
type RecommendationError struct {
	UserID int64
	Err    error
}

func (e *RecommendationError) Error() string {
	return fmt.Sprintf("recommendation for user %d failed: %v", e.UserID, e.Err)
}

func (e *RecommendationError) Unwrap() error {
	return e.Err
}

// IsNoData reports whether err represents a "valid request, no data"
// condition (unknown post, empty model) as opposed to a service failure.
func IsNoData(err error) bool {
	var pnf *PostNotFoundError
	var em *EmptyModelError
	return errors.As(err, &pnf) || errors.As(err, &em)
}
