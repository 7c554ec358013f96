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

// ColdStartModel ranks posts using only catalog aggregates, for users
// with no interaction history. It supports three modes: by category
// (filter then sort by views and mean rating), by mood (substring filter
// on mood tags, same sort), and by global popularity (sort by views,
// likes, mean rating, no filter).
type ColdStartModel struct {
	model
	posts []models.Post
}

// NewColdStartModel creates an unfitted cold-start model.
func NewColdStartModel() *ColdStartModel {
	return &ColdStartModel{model: model{name: "coldstart"}}
}

// Fit records the catalog. An empty catalog yields an EmptyModelError;
// the model still counts as fitted and every query returns an empty list.
func (m *ColdStartModel) Fit(_ context.Context, posts []models.Post) error {
	m.posts = posts
	m.markFitted(len(posts))
	if len(posts) == 0 {
		return &models.EmptyModelError{Model: m.name}
	}
	return nil
}

// Recommend dispatches on the supplied filters: a category filter takes
// precedence over a mood filter, and with neither the global popularity
// ranking applies.
func (m *ColdStartModel) Recommend(ctx context.Context, topN int, filters models.Filters) (models.RankedList, error) {
	switch {
	case filters.CategoryID != 0:
		return m.ByCategory(ctx, filters.CategoryID, topN)
	case filters.Mood != "":
		return m.ByMood(ctx, filters.Mood, topN)
	default:
		return m.ByPopularity(ctx, topN)
	}
}

// ByCategory ranks posts in the given category by total views, then
// mean rating, descending. An unmatched category yields an empty list.
func (m *ColdStartModel) ByCategory(_ context.Context, categoryID int64, topN int) (models.RankedList, error) {
	if !m.fitted {
		return nil, models.ErrNotReady
	}
	return m.rank(topN, engagementLess, func(p *models.Post) bool {
		return p.CategoryID == categoryID
	}), nil
}

// ByMood ranks posts whose mood tags contain the given label by total
// views, then mean rating, descending.
func (m *ColdStartModel) ByMood(_ context.Context, mood string, topN int) (models.RankedList, error) {
	if !m.fitted {
		return nil, models.ErrNotReady
	}
	return m.rank(topN, engagementLess, func(p *models.Post) bool {
		return p.HasMood(mood)
	}), nil
}

// ByPopularity ranks the whole catalog by total views, then total
// likes, then mean rating, descending.
func (m *ColdStartModel) ByPopularity(_ context.Context, topN int) (models.RankedList, error) {
	if !m.fitted {
		return nil, models.ErrNotReady
	}
	return m.rank(topN, popularityLess, nil), nil
}

// engagementLess orders a after b when a trails on [views, mean rating].
func engagementLess(a, b *models.Post) bool {
	if a.TotalViews != b.TotalViews {
		return a.TotalViews > b.TotalViews
	}
	return a.AverageRating > b.AverageRating
}

// popularityLess orders a after b when a trails on [views, likes, mean
// rating].
func popularityLess(a, b *models.Post) bool {
	if a.TotalViews != b.TotalViews {
		return a.TotalViews > b.TotalViews
	}
	if a.TotalLikes != b.TotalLikes {
		return a.TotalLikes > b.TotalLikes
	}
	return a.AverageRating > b.AverageRating
}

func (m *ColdStartModel) rank(topN int, less func(a, b *models.Post) bool, keep func(*models.Post) bool) models.RankedList {
	if topN <= 0 {
		return models.RankedList{}
	}

	order := make([]int, 0, len(m.posts))
	for i := range m.posts {
		if keep == nil || keep(&m.posts[i]) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return less(&m.posts[order[a]], &m.posts[order[b]])
	})

	if topN > len(order) {
		topN = len(order)
	}

	result := make(models.RankedList, 0, topN)
	for _, i := range order[:topN] {
		p := &m.posts[i]
		result = append(result, models.ScoredPost{
			PostID:     p.ID,
			Score:      float64(p.TotalViews),
			Title:      p.Title,
			CategoryID: p.CategoryID,
			MoodTags:   p.MoodTags,
		})
	}
	return result
}
