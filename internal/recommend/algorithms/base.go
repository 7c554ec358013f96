// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package algorithms implements the three scoring models of the hybrid
// recommendation engine: content similarity, collaborative filtering,
// and the cold-start popularity fallback.
//
// Models are fit-once: Fit builds all derived structures (feature
// vectors, similarity matrices) and every query afterwards is a pure
// read. The engine publishes fitted models to readers via an atomic
// snapshot swap, so models carry no internal locking.
package algorithms

import (
	"context"
	"math"
	"time"
)

// model provides the common fitted-state bookkeeping for all algorithms.
type model struct {
	name     string
	fitted   bool
	fittedAt time.Time
	rows     int
}

// Name returns the model identifier.
func (m *model) Name() string { return m.name }

// IsFitted reports whether Fit has completed.
func (m *model) IsFitted() bool { return m.fitted }

// FittedAt returns when the model was last fitted.
func (m *model) FittedAt() time.Time { return m.fittedAt }

// Rows returns the number of input rows the model was fitted on.
func (m *model) Rows() int { return m.rows }

func (m *model) markFitted(rows int) {
	m.fitted = true
	m.fittedAt = time.Now()
	m.rows = rows
}

// cosineSimilarity computes cosine similarity between two equal-length
// vectors. Zero vectors have zero similarity to everything.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// pairwiseCosine computes the full square cosine similarity matrix over
// the given row vectors. The result is symmetric with a unit diagonal
// for non-zero rows.
func pairwiseCosine(rows [][]float64) [][]float64 {
	n := len(rows)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		sim[i][i] = 1
		for j := i + 1; j < n; j++ {
			s := cosineSimilarity(rows[i], rows[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}

	return sim
}

// l2Normalize scales v in place to unit euclidean length.
// Zero vectors are left unchanged.
func l2Normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
}

// contextCancelled checks whether ctx has been cancelled. Used to bail
// out of the O(n²) similarity loops early.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
