// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package models

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestParseInteractionType(t *testing.T) {
	tests := []struct {
		in     string
		want   InteractionType
		wantOK bool
	}{
		{"viewed", InteractionViewed, true},
		{"LIKED", InteractionLiked, true},
		{"Inspired", InteractionInspired, true},
		{"rated", InteractionRated, true},
		{"dancing", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInteractionType(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseInteractionType(%q) = (%v, %v), want (%v, %v)",
				tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInteractionTypeString(t *testing.T) {
	for _, typ := range []InteractionType{
		InteractionViewed, InteractionLiked, InteractionInspired, InteractionRated,
	} {
		name := typ.String()
		if name == "unknown" {
			t.Errorf("InteractionType(%d).String() = %q", typ, name)
		}
		back, ok := ParseInteractionType(name)
		if !ok || back != typ {
			t.Errorf("ParseInteractionType(%q) = (%v, %v), want (%v, true)", name, back, ok, typ)
		}
	}
	if got := InteractionType(99).String(); got != "unknown" {
		t.Errorf("InteractionType(99).String() = %q, want unknown", got)
	}
}

func TestPostMoods(t *testing.T) {
	tests := []struct {
		name string
		tags string
		want []string
	}{
		{"empty", "", nil},
		{"unknown sentinel", "Unknown", nil},
		{"single", "calm", []string{"calm"}},
		{"trims and lowercases", " Calm , WARM ", []string{"calm", "warm"}},
		{"drops empty segments", "calm,,warm", []string{"calm", "warm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Post{MoodTags: tt.tags}
			if got := p.Moods(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Moods() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostHasMood(t *testing.T) {
	p := Post{MoodTags: "Calm,Energetic"}
	if !p.HasMood("calm") {
		t.Error("HasMood(calm) = false, want true")
	}
	if !p.HasMood("") {
		t.Error("HasMood(empty) = false, want true")
	}
	if p.HasMood("moody") {
		t.Error("HasMood(moody) = true, want false")
	}
}

func TestIsNoData(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"post not found", &PostNotFoundError{PostID: 7}, true},
		{"empty model", &EmptyModelError{Model: "content"}, true},
		{"wrapped post not found", fmt.Errorf("lookup: %w", &PostNotFoundError{PostID: 7}), true},
		{"recommendation wrapping empty model", &RecommendationError{UserID: 1, Err: &EmptyModelError{Model: "collaborative"}}, true},
		{"not ready", ErrNotReady, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNoData(tt.err); got != tt.want {
				t.Errorf("IsNoData(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRecommendationErrorUnwrap(t *testing.T) {
	cause := &PostNotFoundError{PostID: 42}
	err := &RecommendationError{UserID: 9, Err: cause}

	var pnf *PostNotFoundError
	if !errors.As(err, &pnf) || pnf.PostID != 42 {
		t.Errorf("errors.As(RecommendationError) = %v, want cause with post 42", pnf)
	}
}

func TestRankedListPostIDs(t *testing.T) {
	list := RankedList{{PostID: 3}, {PostID: 1}, {PostID: 2}}
	if got := list.PostIDs(); !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Errorf("PostIDs() = %v", got)
	}
}
