// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package etl

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/models"
)

func TestLoadPosts(t *testing.T) {
	csv := `id,title,category_id,category_name,moods
1,Sunset tips,10,Photography,"calm,warm"
2,,20,Food,
,Headless row,30,Oops,
abc,Bad id,30,Oops,
3,Third,0,,
`
	l := NewLoader(zerolog.Nop())
	got, err := l.LoadPosts(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadPosts() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (invalid ids dropped)", len(got))
	}
	if got[0].MoodTags != "calm,warm" {
		t.Errorf("mood tags = %q, want calm,warm", got[0].MoodTags)
	}
	if got[1].Title != models.UnknownTitle {
		t.Errorf("empty title = %q, want sentinel %q", got[1].Title, models.UnknownTitle)
	}
	if got[2].ID != 3 || got[2].CategoryID != 0 {
		t.Errorf("post 3 = %+v, want id 3 category 0", got[2])
	}
}

func TestLoadPostsMissingRequiredColumn(t *testing.T) {
	csv := `title,category_id
No id column,10
`
	l := NewLoader(zerolog.Nop())
	_, err := l.LoadPosts(strings.NewReader(csv))

	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("LoadPosts() error = %v, want SchemaError", err)
	}
	if schemaErr.Table != "posts" {
		t.Errorf("Table = %q, want posts", schemaErr.Table)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "id" {
		t.Errorf("Missing = %v, want [id]", schemaErr.Missing)
	}
}

func TestLoadPostsOptionalColumnsAbsent(t *testing.T) {
	csv := `id
1
2
`
	l := NewLoader(zerolog.Nop())
	got, err := l.LoadPosts(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadPosts() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Title != models.UnknownTitle {
		t.Errorf("title = %q, want default sentinel", got[0].Title)
	}
}

func TestLoadInteractions(t *testing.T) {
	csv := `user_id,post_id,interaction_type,rating_percent,timestamp
1,10,viewed,,2026-08-01T12:00:00Z
1,20,rated,85,2026-08-02T12:00:00Z
,30,viewed,,
2,,liked,,
3,40,dancing,,
2,50,LIKED,,
`
	l := NewLoader(zerolog.Nop())
	got, err := l.LoadInteractions(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("LoadInteractions() error = %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3 (invalid rows dropped)", len(got))
	}
	if got[1].Type != models.InteractionRated || got[1].RatingPercent != 85 {
		t.Errorf("rated row = %+v", got[1])
	}
	if got[2].Type != models.InteractionLiked {
		t.Errorf("case-insensitive type = %v, want liked", got[2].Type)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp was not parsed")
	}
}

func TestLoadInteractionsMissingIdentityColumns(t *testing.T) {
	csv := `interaction_type
viewed
`
	l := NewLoader(zerolog.Nop())
	_, err := l.LoadInteractions(strings.NewReader(csv))

	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("LoadInteractions() error = %v, want SchemaError", err)
	}
	if len(schemaErr.Missing) != 2 {
		t.Errorf("Missing = %v, want both identity columns", schemaErr.Missing)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	l := NewLoader(zerolog.Nop())
	_, err := l.LoadPosts(strings.NewReader(""))

	var schemaErr *models.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("LoadPosts(empty) error = %v, want SchemaError", err)
	}
}
