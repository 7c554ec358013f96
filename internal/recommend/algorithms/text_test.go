// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package algorithms

import (
	"math"
	"reflect"
	"testing"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			in:   "Sunset Over The Hills!",
			want: []string{"sunset", "over", "hill"},
		},
		{
			name: "removes stop words",
			in:   "the art of the deal",
			want: []string{"art", "deal"},
		},
		{
			name: "lemmatizes plural and verbal suffixes",
			in:   "painting cities dreams",
			want: []string{"paint", "city", "dream"},
		},
		{
			name: "drops tokens below minimum length",
			in:   "a b cd efg",
			want: []string{"cd", "efg"},
		},
		{
			name: "empty input",
			in:   "",
			want: []string{},
		},
		{
			name: "keeps digits",
			in:   "top 10 ideas",
			want: []string{"top", "10", "idea"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeText(tt.in, 2)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeText(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLemma(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cities", "city"},
		{"running", "runn"},
		{"walked", "walk"},
		{"dishes", "dish"},
		{"cats", "cat"},
		{"glass", "glass"},
		{"art", "art"},
	}

	for _, tt := range tests {
		if got := lemma(tt.in); got != tt.want {
			t.Errorf("lemma(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTFIDFMatrix(t *testing.T) {
	docs := [][]string{
		{"sunset", "beach"},
		{"sunset", "mountain"},
		{"recipe"},
	}

	rows, vocab := tfidfMatrix(docs)

	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if len(vocab) != 4 {
		t.Fatalf("len(vocab) = %d, want 4", len(vocab))
	}

	// Every non-empty row is L2-normalized.
	for i, row := range rows {
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d has squared norm %f, want 1", i, sum)
		}
	}

	// Documents sharing a term are more similar than disjoint ones.
	shared := cosineSimilarity(rows[0], rows[1])
	disjoint := cosineSimilarity(rows[0], rows[2])
	if shared <= disjoint {
		t.Errorf("similarity(shared)=%f <= similarity(disjoint)=%f", shared, disjoint)
	}
	if disjoint != 0 {
		t.Errorf("similarity of disjoint docs = %f, want 0", disjoint)
	}

	// The rare term outweighs the common one within a document.
	if rows[0][vocab["beach"]] <= rows[0][vocab["sunset"]] {
		t.Errorf("rare term weight %f <= common term weight %f",
			rows[0][vocab["beach"]], rows[0][vocab["sunset"]])
	}
}

func TestTFIDFMatrixEmptyDoc(t *testing.T) {
	rows, _ := tfidfMatrix([][]string{{"sunset"}, {}})
	for _, v := range rows[1] {
		if v != 0 {
			t.Fatalf("empty doc produced non-zero weight %f", v)
		}
	}
}

func TestTermFrequencyMatrix(t *testing.T) {
	rows, vocab := termFrequencyMatrix([][]string{
		{"calm", "calm", "cozy", "moody"},
		{},
	})

	if got := rows[0][vocab["calm"]]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("tf(calm) = %f, want 0.5", got)
	}
	if got := rows[0][vocab["cozy"]]; math.Abs(got-0.25) > 1e-9 {
		t.Errorf("tf(cozy) = %f, want 0.25", got)
	}
	for _, v := range rows[1] {
		if v != 0 {
			t.Fatalf("empty doc produced non-zero frequency %f", v)
		}
	}
}
