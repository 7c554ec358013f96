// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package recommend

import (
	"sort"

	"github.com/inspirehub/feedengine/internal/models"
)

// Score blending for the hybrid combiner. The order is fixed: each
// source's result set is min-max normalized on its own, then scaled by
// its blend weight, then the sets are concatenated and duplicate post
// ids are summed. Changing that order changes outcomes.

// minMaxNormalize rescales the scores of one result set to [0,1] in
// place. A set whose scores are all equal maps to 0.5 so it neither
// dominates nor vanishes after weighting.
func minMaxNormalize(list models.RankedList) {
	if len(list) == 0 {
		return
	}

	minS, maxS := list[0].Score, list[0].Score
	for _, sp := range list[1:] {
		if sp.Score < minS {
			minS = sp.Score
		}
		if sp.Score > maxS {
			maxS = sp.Score
		}
	}

	if maxS == minS {
		for i := range list {
			list[i].Score = 0.5
		}
		return
	}

	span := maxS - minS
	for i := range list {
		list[i].Score = (list[i].Score - minS) / span
	}
}

// applyWeight scales every score in the list by the blend weight.
func applyWeight(list models.RankedList, weight float64) {
	for i := range list {
		list[i].Score *= weight
	}
}

// applyFilters narrows one result set to posts matching the filters,
// looking attributes up in the catalog. Rows whose post id is absent
// from the catalog carry no attributes to filter on and are kept, so a
// set lacking filterable data is passed through rather than emptied.
func applyFilters(list models.RankedList, filters models.Filters, catalog map[int64]models.Post) models.RankedList {
	if filters.IsZero() {
		return list
	}

	filtered := make(models.RankedList, 0, len(list))
	for _, sp := range list {
		p, known := catalog[sp.PostID]
		if !known {
			filtered = append(filtered, sp)
			continue
		}
		if filters.CategoryID != 0 && p.CategoryID != filters.CategoryID {
			continue
		}
		if filters.Mood != "" && !p.HasMood(filters.Mood) {
			continue
		}
		filtered = append(filtered, sp)
	}
	return filtered
}

// combine concatenates the weighted result sets, sums scores across
// duplicate post ids, and returns the merged rows sorted descending by
// score with ties broken by ascending post id.
func combine(sets ...models.RankedList) models.RankedList {
	total := 0
	for _, set := range sets {
		total += len(set)
	}
	if total == 0 {
		return models.RankedList{}
	}

	scores := make(map[int64]float64, total)
	order := make([]int64, 0, total)
	for _, set := range sets {
		for _, sp := range set {
			if _, seen := scores[sp.PostID]; !seen {
				order = append(order, sp.PostID)
			}
			scores[sp.PostID] += sp.Score
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := scores[order[a]], scores[order[b]]
		if sa != sb {
			return sa > sb
		}
		return order[a] < order[b]
	})

	merged := make(models.RankedList, 0, len(order))
	for _, id := range order {
		merged = append(merged, models.ScoredPost{PostID: id, Score: scores[id]})
	}
	return merged
}

// enrich fills display fields from the catalog for posts the snapshot
// knows about.
func enrich(list models.RankedList, catalog map[int64]models.Post) {
	for i := range list {
		if p, ok := catalog[list[i].PostID]; ok {
			list[i].Title = p.Title
			list[i].CategoryID = p.CategoryID
			list[i].MoodTags = p.MoodTags
		}
	}
}

// truncate caps the list at n rows.
func truncate(list models.RankedList, n int) models.RankedList {
	if n < 0 {
		n = 0
	}
	if len(list) > n {
		return list[:n]
	}
	return list
}
