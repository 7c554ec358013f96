// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package algorithms

import (
	"context"
	"sort"

	"github.com/inspirehub/feedengine/internal/models"
)

// ContentModel implements content-based similarity over post metadata.
// Each post is mapped to a combined feature vector built from three
// column blocks:
//
//   - an L2-normalized TF-IDF embedding of the processed title,
//   - a one-hot category indicator,
//   - a mood term-frequency embedding scaled by a damping factor so mood
//     tags influence but never dominate similarity.
//
// Fit concatenates the blocks and precomputes the full pairwise cosine
// similarity matrix, which every unfiltered SimilarTo query reuses.
// Filtered queries re-derive feature vectors over the filtered candidate
// set plus the query post, so the filter changes the comparison universe
// rather than just truncating the unfiltered ranking.
type ContentModel struct {
	model
	cfg ContentConfig

	posts     []models.Post
	postIndex map[int64]int // post id -> index in posts
	sim       [][]float64
}

// ContentConfig contains parameters for the content similarity model.
type ContentConfig struct {
	// MoodDamping scales the mood term-frequency block so mood tags
	// influence but do not dominate similarity.
	// Default: 0.5.
	MoodDamping float64 `json:"mood_damping"`

	// MinTokenLength drops shorter title tokens during normalization.
	// Default: 2.
	MinTokenLength int `json:"min_token_length"`
}

// NewContentModel creates an unfitted content similarity model.
func NewContentModel(cfg ContentConfig) *ContentModel {
	if cfg.MoodDamping == 0 {
		cfg.MoodDamping = 0.5
	}
	if cfg.MinTokenLength == 0 {
		cfg.MinTokenLength = 2
	}
	return &ContentModel{
		model:     model{name: "content"},
		cfg:       cfg,
		postIndex: make(map[int64]int),
	}
}

// Fit builds the feature matrix and the pairwise similarity matrix from
// the post catalog. An empty catalog yields an EmptyModelError; the
// model still counts as fitted and every query returns an empty list.
func (c *ContentModel) Fit(ctx context.Context, posts []models.Post) error {
	c.posts = posts
	c.postIndex = make(map[int64]int, len(posts))
	for i := range posts {
		c.postIndex[posts[i].ID] = i
	}

	if len(posts) == 0 {
		c.sim = nil
		c.markFitted(0)
		return &models.EmptyModelError{Model: c.name}
	}

	if contextCancelled(ctx) {
		return ctx.Err()
	}

	features := c.featureMatrix(posts)

	if contextCancelled(ctx) {
		return ctx.Err()
	}

	c.sim = pairwiseCosine(features)
	c.markFitted(len(posts))
	return nil
}

// featureMatrix builds the combined per-post feature rows for the given
// catalog slice. Called once over the full catalog at fit time and again
// over filtered sub-catalogs during filtered queries.
func (c *ContentModel) featureMatrix(posts []models.Post) [][]float64 {
	titleDocs := make([][]string, len(posts))
	moodDocs := make([][]string, len(posts))
	for i := range posts {
		title := posts[i].Title
		if title == "" {
			title = models.UnknownTitle
		}
		titleDocs[i] = normalizeText(title, c.cfg.MinTokenLength)
		moodDocs[i] = posts[i].Moods()
	}

	titleBlock, _ := tfidfMatrix(titleDocs)
	moodBlock, _ := termFrequencyMatrix(moodDocs)

	// One-hot category block over the categories present in this slice.
	catIndex := make(map[int64]int)
	for i := range posts {
		if _, ok := catIndex[posts[i].CategoryID]; !ok {
			catIndex[posts[i].CategoryID] = len(catIndex)
		}
	}

	titleCols := 0
	if len(titleBlock) > 0 {
		titleCols = len(titleBlock[0])
	}
	moodCols := 0
	if len(moodBlock) > 0 {
		moodCols = len(moodBlock[0])
	}

	rows := make([][]float64, len(posts))
	for i := range posts {
		row := make([]float64, titleCols+len(catIndex)+moodCols)
		copy(row, titleBlock[i])
		row[titleCols+catIndex[posts[i].CategoryID]] = 1
		for j, v := range moodBlock[i] {
			row[titleCols+len(catIndex)+j] = v * c.cfg.MoodDamping
		}
		rows[i] = row
	}
	return rows
}

// SimilarTo ranks catalog posts by resemblance to the given post,
// excluding the post itself, descending by similarity with ties kept in
// catalog order. Filters restrict the candidate universe before feature
// derivation. Returns PostNotFoundError if the id is not in the catalog;
// a model fitted on zero rows returns an empty list.
func (c *ContentModel) SimilarTo(ctx context.Context, postID int64, topN int, filters models.Filters) (models.RankedList, error) {
	if !c.fitted {
		return nil, models.ErrNotReady
	}
	if c.rows == 0 {
		return models.RankedList{}, nil
	}

	idx, ok := c.postIndex[postID]
	if !ok {
		return nil, &models.PostNotFoundError{PostID: postID}
	}
	if topN <= 0 {
		return models.RankedList{}, nil
	}

	if filters.IsZero() {
		return c.rankRow(c.sim[idx], c.posts, idx, topN), nil
	}

	// Filtered query: restrict the universe to matching posts plus the
	// query post, then re-derive features over that sub-catalog.
	subset := make([]models.Post, 0, len(c.posts))
	queryAt := -1
	for i := range c.posts {
		p := &c.posts[i]
		if i == idx {
			queryAt = len(subset)
			subset = append(subset, *p)
			continue
		}
		if filters.CategoryID != 0 && p.CategoryID != filters.CategoryID {
			continue
		}
		if filters.Mood != "" && !p.HasMood(filters.Mood) {
			continue
		}
		subset = append(subset, *p)
	}
	if len(subset) <= 1 {
		return models.RankedList{}, nil
	}

	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	features := c.featureMatrix(subset)
	simRow := make([]float64, len(subset))
	for i := range subset {
		simRow[i] = cosineSimilarity(features[queryAt], features[i])
	}

	return c.rankRow(simRow, subset, queryAt, topN), nil
}

// rankRow turns one similarity row into a ranked list over the given
// catalog slice, excluding the query post at queryAt.
func (c *ContentModel) rankRow(simRow []float64, catalog []models.Post, queryAt, topN int) models.RankedList {
	order := make([]int, 0, len(catalog)-1)
	for i := range catalog {
		if i != queryAt {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return simRow[order[a]] > simRow[order[b]]
	})

	if topN > len(order) {
		topN = len(order)
	}

	result := make(models.RankedList, 0, topN)
	for _, i := range order[:topN] {
		p := &catalog[i]
		result = append(result, models.ScoredPost{
			PostID:     p.ID,
			Score:      simRow[i],
			Title:      p.Title,
			CategoryID: p.CategoryID,
			MoodTags:   p.MoodTags,
		})
	}
	return result
}

// HasPost reports whether the fitted catalog contains the given post id.
func (c *ContentModel) HasPost(postID int64) bool {
	_, ok := c.postIndex[postID]
	return ok
}

// Similarity returns the precomputed similarity between two catalog
// posts, or 0 if either id is unknown.
func (c *ContentModel) Similarity(a, b int64) float64 {
	i, ok := c.postIndex[a]
	if !ok {
		return 0
	}
	j, ok := c.postIndex[b]
	if !ok {
		return 0
	}
	return c.sim[i][j]
}
