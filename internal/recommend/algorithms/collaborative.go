// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package algorithms

import (
	"context"
	"sort"
	"time"

	"github.com/inspirehub/feedengine/internal/models"
)

// CollabModel implements item-based collaborative filtering.
//
// Fit collapses the interaction log into a binary user-post matrix
// (rows = distinct users, columns = distinct posts, cell = 1 if any
// interaction exists for the pair) and precomputes the item-item cosine
// similarity matrix over its columns. Recommend accumulates, for every
// post the user has interacted with, that post's similarity row into a
// running score per non-interacted candidate. Sum, not average: posts
// similar to more of the user's history rank higher.
type CollabModel struct {
	model

	postIDs   []int64
	postIndex map[int64]int // post id -> column
	userIndex map[int64]int // user id -> row
	userItems []map[int]struct{}
	itemSim   [][]float64
	seeds     map[int64]int64
	dropped   int
}

// NewCollabModel creates an unfitted collaborative filtering model.
func NewCollabModel() *CollabModel {
	return &CollabModel{
		model:     model{name: "collaborative"},
		postIndex: make(map[int64]int),
		userIndex: make(map[int64]int),
		seeds:     make(map[int64]int64),
	}
}

// Fit builds the user-post matrix and the item-item similarity matrix.
// Rows missing either identity field are dropped before processing. An
// interaction log with no valid rows yields an EmptyModelError; the
// model still counts as fitted and every query returns an empty list.
func (m *CollabModel) Fit(ctx context.Context, interactions []models.Interaction) error {
	valid := make([]models.Interaction, 0, len(interactions))
	m.dropped = 0
	for i := range interactions {
		if interactions[i].UserID <= 0 || interactions[i].PostID <= 0 {
			m.dropped++
			continue
		}
		valid = append(valid, interactions[i])
	}

	userSet := make(map[int64]struct{})
	postSet := make(map[int64]struct{})
	for i := range valid {
		userSet[valid[i].UserID] = struct{}{}
		postSet[valid[i].PostID] = struct{}{}
	}

	m.postIDs = make([]int64, 0, len(postSet))
	for id := range postSet {
		m.postIDs = append(m.postIDs, id)
	}
	sort.Slice(m.postIDs, func(a, b int) bool { return m.postIDs[a] < m.postIDs[b] })

	userIDs := make([]int64, 0, len(userSet))
	for id := range userSet {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(a, b int) bool { return userIDs[a] < userIDs[b] })

	m.postIndex = make(map[int64]int, len(m.postIDs))
	for col, id := range m.postIDs {
		m.postIndex[id] = col
	}
	m.userIndex = make(map[int64]int, len(userIDs))
	for row, id := range userIDs {
		m.userIndex[id] = row
	}

	m.userItems = make([]map[int]struct{}, len(userIDs))
	for row := range m.userItems {
		m.userItems[row] = make(map[int]struct{})
	}
	for i := range valid {
		row := m.userIndex[valid[i].UserID]
		m.userItems[row][m.postIndex[valid[i].PostID]] = struct{}{}
	}

	m.seeds = computeSeeds(valid)

	if len(valid) == 0 {
		m.itemSim = nil
		m.markFitted(0)
		return &models.EmptyModelError{Model: m.name}
	}

	if contextCancelled(ctx) {
		return ctx.Err()
	}

	// Column vectors of the binary matrix, one per post.
	columns := make([][]float64, len(m.postIDs))
	for col := range columns {
		columns[col] = make([]float64, len(userIDs))
	}
	for row, items := range m.userItems {
		for col := range items {
			columns[col][row] = 1
		}
	}

	m.itemSim = pairwiseCosine(columns)
	m.markFitted(len(valid))
	return nil
}

// computeSeeds picks, for each user, the post that best represents their
// taste: the most recently interacted post, with ties broken by higher
// interaction count and then by lower post id.
func computeSeeds(interactions []models.Interaction) map[int64]int64 {
	type candidate struct {
		postID int64
		latest time.Time
		count  int
	}

	best := make(map[int64]map[int64]*candidate)
	for i := range interactions {
		in := &interactions[i]
		byPost, ok := best[in.UserID]
		if !ok {
			byPost = make(map[int64]*candidate)
			best[in.UserID] = byPost
		}
		c, ok := byPost[in.PostID]
		if !ok {
			c = &candidate{postID: in.PostID}
			byPost[in.PostID] = c
		}
		c.count++
		if in.Timestamp.After(c.latest) {
			c.latest = in.Timestamp
		}
	}

	seeds := make(map[int64]int64, len(best))
	for userID, byPost := range best {
		var winner *candidate
		for _, c := range byPost {
			if winner == nil {
				winner = c
				continue
			}
			switch {
			case c.latest.After(winner.latest):
				winner = c
			case c.latest.Equal(winner.latest) && c.count > winner.count:
				winner = c
			case c.latest.Equal(winner.latest) && c.count == winner.count && c.postID < winner.postID:
				winner = c
			}
		}
		seeds[userID] = winner.postID
	}
	return seeds
}

// HasUser reports whether the user appears in the user-post matrix with
// at least one interaction. Absence is the cold-start trigger.
func (m *CollabModel) HasUser(userID int64) bool {
	row, ok := m.userIndex[userID]
	if !ok {
		return false
	}
	return len(m.userItems[row]) > 0
}

// SeedPost returns the post that represents the user's taste for the
// content branch of the hybrid blend. Returns false for unknown users.
func (m *CollabModel) SeedPost(userID int64) (int64, bool) {
	id, ok := m.seeds[userID]
	return id, ok
}

// Dropped returns the number of interaction rows discarded at fit time
// for missing identity fields.
func (m *CollabModel) Dropped() int { return m.dropped }

// Users returns the number of distinct users in the user-post matrix.
func (m *CollabModel) Users() int { return len(m.userIndex) }

// Recommend ranks posts the user has not interacted with by accumulated
// similarity to the user's interaction history. An unknown user, or one
// with no interactions, yields an empty list rather than an error so the
// caller can fall back to cold-start ranking.
func (m *CollabModel) Recommend(ctx context.Context, userID int64, topN int) (models.RankedList, error) {
	if !m.fitted {
		return nil, models.ErrNotReady
	}
	if m.rows == 0 || topN <= 0 {
		return models.RankedList{}, nil
	}

	row, ok := m.userIndex[userID]
	if !ok {
		return models.RankedList{}, nil
	}
	interacted := m.userItems[row]
	if len(interacted) == 0 {
		return models.RankedList{}, nil
	}

	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	scores := make([]float64, len(m.postIDs))
	for col := range interacted {
		simRow := m.itemSim[col]
		for j := range simRow {
			if _, seen := interacted[j]; seen {
				continue
			}
			scores[j] += simRow[j]
		}
	}

	candidates := make([]int, 0, len(m.postIDs)-len(interacted))
	for j := range m.postIDs {
		if _, seen := interacted[j]; !seen {
			candidates = append(candidates, j)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return scores[candidates[a]] > scores[candidates[b]]
	})

	if topN > len(candidates) {
		topN = len(candidates)
	}

	result := make(models.RankedList, 0, topN)
	for _, j := range candidates[:topN] {
		result = append(result, models.ScoredPost{
			PostID: m.postIDs[j],
			Score:  scores[j],
		})
	}
	return result, nil
}
