// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package algorithms

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// stopwords is the english stop-word list applied during title
// normalization. Kept small on purpose: titles are short documents and
// aggressive stopping removes too much signal.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"been": {}, "but": {}, "by": {}, "can": {}, "do": {}, "for": {},
	"from": {}, "had": {}, "has": {}, "have": {}, "he": {}, "her": {},
	"his": {}, "how": {}, "i": {}, "if": {}, "in": {}, "into": {},
	"is": {}, "it": {}, "its": {}, "me": {}, "my": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "our": {}, "she": {},
	"so": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "was": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"which": {}, "who": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// lemma reduces a token to a base form with a small rule-based suffix
// stripper. This is deliberately lighter than a full stemmer: it folds
// the common plural and verbal inflections without mangling short words.
func lemma(tok string) string {
	n := len(tok)
	switch {
	case n > 4 && strings.HasSuffix(tok, "ies"):
		return tok[:n-3] + "y"
	case n > 4 && strings.HasSuffix(tok, "ing"):
		return tok[:n-3]
	case n > 3 && strings.HasSuffix(tok, "ed"):
		return tok[:n-2]
	case n > 3 && strings.HasSuffix(tok, "es"):
		return tok[:n-2]
	case n > 2 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss"):
		return tok[:n-1]
	default:
		return tok
	}
}

// normalizeText lowercases, strips punctuation, tokenizes, removes
// stop-words and lemmatizes. minTokenLen drops shorter tokens after
// lemmatization.
func normalizeText(text string, minTokenLen int) []string {
	text = strings.ToLower(text)

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		t := lemma(f)
		if len(t) < minTokenLen {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// vocabulary maps each distinct term across all documents to a stable
// column index (lexicographic order, for deterministic matrices).
func vocabulary(docs [][]string) map[string]int {
	set := make(map[string]struct{})
	for _, doc := range docs {
		for _, t := range doc {
			set[t] = struct{}{}
		}
	}

	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// tfidfMatrix computes an L2-normalized TF-IDF matrix over the tokenized
// documents: tf = count/len(doc), idf = ln((1+N)/(1+df)) + 1 (smoothed so
// unseen terms never divide by zero), each row scaled to unit length.
func tfidfMatrix(docs [][]string) ([][]float64, map[string]int) {
	vocab := vocabulary(docs)
	n := len(docs)

	// Document frequency per term.
	df := make([]int, len(vocab))
	for _, doc := range docs {
		seen := make(map[int]struct{}, len(doc))
		for _, t := range doc {
			seen[vocab[t]] = struct{}{}
		}
		for col := range seen {
			df[col]++
		}
	}

	idf := make([]float64, len(vocab))
	for col, d := range df {
		idf[col] = math.Log(float64(1+n)/float64(1+d)) + 1
	}

	rows := make([][]float64, n)
	for i, doc := range docs {
		row := make([]float64, len(vocab))
		if len(doc) > 0 {
			for _, t := range doc {
				row[vocab[t]] += 1 / float64(len(doc))
			}
			for col := range row {
				row[col] *= idf[col]
			}
			l2Normalize(row)
		}
		rows[i] = row
	}

	return rows, vocab
}

// termFrequencyMatrix computes a plain term-frequency matrix (no idf, no
// normalization) over the tokenized documents. Used for the mood block,
// where the damping factor replaces idf weighting.
func termFrequencyMatrix(docs [][]string) ([][]float64, map[string]int) {
	vocab := vocabulary(docs)

	rows := make([][]float64, len(docs))
	for i, doc := range docs {
		row := make([]float64, len(vocab))
		if len(doc) > 0 {
			for _, t := range doc {
				row[vocab[t]] += 1 / float64(len(doc))
			}
		}
		rows[i] = row
	}

	return rows, vocab
}
