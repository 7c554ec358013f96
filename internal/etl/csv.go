// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/models"
)

// Loader reads CSV bootstrap files into domain rows.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a CSV loader.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{logger: logger.With().Str("component", "etl").Logger()}
}

// LoadPosts parses a post feature table. The header is validated
// against PostsSchema; rows with a missing or non-numeric id are
// dropped with a warning.
func (l *Loader) LoadPosts(r io.Reader) ([]models.Post, error) {
	records, cols, err := readTable(r, PostsSchema)
	if err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(records))
	dropped := 0
	for _, rec := range records {
		id, err := strconv.ParseInt(cols.get(rec, "id"), 10, 64)
		if err != nil || id <= 0 {
			dropped++
			continue
		}

		categoryID, _ := strconv.ParseInt(cols.get(rec, "category_id"), 10, 64)
		posts = append(posts, models.Post{
			ID:           id,
			Title:        cols.get(rec, "title"),
			CategoryID:   categoryID,
			CategoryName: cols.get(rec, "category_name"),
			MoodTags:     cols.get(rec, "moods"),
		})
	}

	if dropped > 0 {
		l.logger.Warn().Int("dropped", dropped).Msg("post rows dropped for missing id")
	}
	return posts, nil
}

// LoadInteractions parses a user-post interaction table. The header is
// validated against InteractionsSchema; rows missing either identity
// column are dropped, matching the collaborative model's fit contract.
func (l *Loader) LoadInteractions(r io.Reader) ([]models.Interaction, error) {
	records, cols, err := readTable(r, InteractionsSchema)
	if err != nil {
		return nil, err
	}

	interactions := make([]models.Interaction, 0, len(records))
	dropped := 0
	for _, rec := range records {
		userID, uerr := strconv.ParseInt(cols.get(rec, "user_id"), 10, 64)
		postID, perr := strconv.ParseInt(cols.get(rec, "post_id"), 10, 64)
		if uerr != nil || perr != nil || userID <= 0 || postID <= 0 {
			dropped++
			continue
		}

		kind, ok := models.ParseInteractionType(cols.get(rec, "interaction_type"))
		if !ok {
			dropped++
			continue
		}

		rating, _ := strconv.ParseFloat(cols.get(rec, "rating_percent"), 64)

		var ts time.Time
		if raw := cols.get(rec, "timestamp"); raw != "" {
			ts, _ = time.Parse(time.RFC3339, raw)
		}

		interactions = append(interactions, models.Interaction{
			UserID:        userID,
			PostID:        postID,
			Type:          kind,
			RatingPercent: rating,
			Timestamp:     ts,
		})
	}

	if dropped > 0 {
		l.logger.Warn().Int("dropped", dropped).Msg("interaction rows dropped for missing ids")
	}
	return interactions, nil
}

// readTable reads all CSV records and resolves the header against the
// schema.
func readTable(r io.Reader, schema TableSchema) ([][]string, *columnMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, &models.SchemaError{Table: schema.Name, Missing: schema.Required}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", schema.Name, err)
	}

	cols, err := schema.resolve(header)
	if err != nil {
		return nil, nil, err
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s rows: %w", schema.Name, err)
	}
	return records, cols, nil
}

// PostWriter persists catalog rows. Implemented by the store.
type PostWriter interface {
	UpsertPosts(ctx context.Context, posts []models.Post) error
}

// InteractionWriter persists interaction rows. Implemented by the store.
type InteractionWriter interface {
	InsertInteractions(ctx context.Context, interactions []models.Interaction) (int, error)
}

// ImportPostsFile loads a posts CSV from disk into the store.
func (l *Loader) ImportPostsFile(ctx context.Context, path string, w PostWriter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	posts, err := l.LoadPosts(f)
	if err != nil {
		return 0, err
	}
	if err := w.UpsertPosts(ctx, posts); err != nil {
		return 0, err
	}

	l.logger.Info().Int("posts", len(posts)).Str("path", path).Msg("post table imported")
	return len(posts), nil
}

// ImportInteractionsFile loads an interactions CSV from disk into the
// store.
func (l *Loader) ImportInteractionsFile(ctx context.Context, path string, w InteractionWriter) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	interactions, err := l.LoadInteractions(f)
	if err != nil {
		return 0, err
	}
	inserted, err := w.InsertInteractions(ctx, interactions)
	if err != nil {
		return 0, err
	}

	l.logger.Info().
		Int("rows", len(interactions)).
		Int("inserted", inserted).
		Str("path", path).
		Msg("interaction table imported")
	return inserted, nil
}
