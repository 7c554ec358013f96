// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package etl loads tabular bootstrap data into the store. Input files
// are validated against explicit schema descriptors once at load time:
// a missing required column fails fast with a SchemaError, a missing
// optional column falls back to its declared default.
package etl

import (
	"strings"

	"github.com/inspirehub/feedengine/internal/models"
)

// TableSchema describes the expected columns of one input table.
type TableSchema struct {
	// Name is the logical table name, reported in SchemaError.
	Name string

	// Required lists columns that must be present.
	Required []string

	// Optional maps columns that may be absent to their default value.
	Optional map[string]string
}

// columnMap resolves a CSV header against the schema. Header matching
// is case-insensitive and ignores surrounding whitespace.
type columnMap struct {
	index    map[string]int
	defaults map[string]string
}

// resolve validates the header against the schema and returns the
// column lookup. Returns a SchemaError listing every missing required
// column.
func (s TableSchema) resolve(header []string) (*columnMap, error) {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range s.Required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &models.SchemaError{Table: s.Name, Missing: missing}
	}

	return &columnMap{index: index, defaults: s.Optional}, nil
}

// get returns the named column's value from a record, or the schema
// default when the column is absent or empty.
func (m *columnMap) get(record []string, col string) string {
	if i, ok := m.index[col]; ok && i < len(record) {
		if v := strings.TrimSpace(record[i]); v != "" {
			return v
		}
	}
	return m.defaults[col]
}

// PostsSchema describes the post feature table.
var PostsSchema = TableSchema{
	Name:     "posts",
	Required: []string{"id"},
	Optional: map[string]string{
		"title":         models.UnknownTitle,
		"category_id":   "0",
		"category_name": "",
		"moods":         "",
	},
}

// InteractionsSchema describes the user-post interaction table.
var InteractionsSchema = TableSchema{
	Name:     "interactions",
	Required: []string{"user_id", "post_id"},
	Optional: map[string]string{
		"interaction_type": "viewed",
		"rating_percent":   "0",
		"timestamp":        "",
	},
}
