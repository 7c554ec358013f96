// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inspirehub/feedengine/internal/config"
	"github.com/inspirehub/feedengine/internal/models"
)

// fakeAPI serves pre-built pages and records the since bounds it saw.
type fakeAPI struct {
	postPages []*PostPage
	userPages []*UserPage
	feedPages map[models.InteractionType][]*InteractionPage
	postsErr  error
	sinceSeen []time.Time
	kindsSeen []models.InteractionType
}

func (f *fakeAPI) GetPosts(ctx context.Context, page, pageSize int) (*PostPage, error) {
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	if page > len(f.postPages) {
		return &PostPage{Page: page}, nil
	}
	return f.postPages[page-1], nil
}

func (f *fakeAPI) GetUsers(ctx context.Context, page, pageSize int) (*UserPage, error) {
	if page > len(f.userPages) {
		return &UserPage{Page: page}, nil
	}
	return f.userPages[page-1], nil
}

func (f *fakeAPI) GetInteractions(ctx context.Context, kind models.InteractionType, page, pageSize int, since time.Time) (*InteractionPage, error) {
	if page == 1 {
		f.sinceSeen = append(f.sinceSeen, since)
		f.kindsSeen = append(f.kindsSeen, kind)
	}
	pages := f.feedPages[kind]
	if page > len(pages) {
		return &InteractionPage{Page: page}, nil
	}
	return pages[page-1], nil
}

// memStore collects writes in memory.
type memStore struct {
	posts        []models.Post
	users        []models.User
	interactions []models.Interaction
}

func (m *memStore) UpsertPosts(ctx context.Context, posts []models.Post) error {
	m.posts = append(m.posts, posts...)
	return nil
}

func (m *memStore) UpsertUsers(ctx context.Context, users []models.User) error {
	m.users = append(m.users, users...)
	return nil
}

func (m *memStore) InsertInteractions(ctx context.Context, interactions []models.Interaction) (int, error) {
	m.interactions = append(m.interactions, interactions...)
	return len(interactions), nil
}

func TestSyncerPaginatesAndWrites(t *testing.T) {
	api := &fakeAPI{
		postPages: []*PostPage{
			{Data: []PostDTO{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}}, Page: 1, TotalPages: 2},
			{Data: []PostDTO{{ID: 3, Title: "Three"}, {ID: 0, Title: "Broken"}}, Page: 2, TotalPages: 2},
		},
		userPages: []*UserPage{
			{Data: []UserDTO{{ID: 7, Username: "ira"}, {ID: 0, Username: "ghost"}}, Page: 1, TotalPages: 1},
		},
		feedPages: map[models.InteractionType][]*InteractionPage{
			models.InteractionViewed: {
				{
					Data: []InteractionDTO{
						{UserID: 1, PostID: 1},
						{UserID: 0, PostID: 3},
					},
					Page:       1,
					TotalPages: 1,
				},
			},
			models.InteractionRated: {
				{
					Data:       []InteractionDTO{{UserID: 2, PostID: 1, RatingPercent: 85}},
					Page:       1,
					TotalPages: 1,
				},
			},
		},
	}
	store := &memStore{}
	cfg := &config.IngestConfig{PageSize: 2}

	s := NewSyncer(api, store, cfg, zerolog.Nop())
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if len(store.posts) != 3 {
		t.Errorf("posts written = %d, want 3 (invalid id dropped)", len(store.posts))
	}
	if len(store.users) != 1 {
		t.Errorf("users written = %d, want 1 (invalid id dropped)", len(store.users))
	}
	if len(store.interactions) != 2 {
		t.Errorf("interactions written = %d, want 2 (invalid rows dropped)", len(store.interactions))
	}
	for _, in := range store.interactions {
		if in.Type != models.InteractionViewed && in.Type != models.InteractionRated {
			t.Errorf("interaction carries wrong kind: %+v", in)
		}
	}
	if len(api.kindsSeen) != 4 {
		t.Errorf("feeds drained = %d, want all 4 kinds", len(api.kindsSeen))
	}
	if len(api.sinceSeen) == 0 || !api.sinceSeen[0].IsZero() {
		t.Error("first run should fetch interactions without a since bound")
	}
}

func TestSyncerAdvancesSinceBound(t *testing.T) {
	api := &fakeAPI{}
	s := NewSyncer(api, &memStore{}, &config.IngestConfig{PageSize: 10}, zerolog.Nop())

	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}

	// Four feeds per run, two runs.
	if len(api.sinceSeen) != 8 {
		t.Fatalf("interaction fetches = %d, want 8", len(api.sinceSeen))
	}
	for i := 0; i < 4; i++ {
		if !api.sinceSeen[i].IsZero() {
			t.Errorf("first run fetch %d should be unbounded", i)
		}
	}
	for i := 4; i < 8; i++ {
		if api.sinceSeen[i].IsZero() {
			t.Errorf("second run fetch %d should carry the previous run's start time", i)
		}
	}
}

func TestSyncerRespectsMaxPages(t *testing.T) {
	api := &fakeAPI{
		postPages: []*PostPage{
			{Data: []PostDTO{{ID: 1}}, Page: 1, TotalPages: 10},
			{Data: []PostDTO{{ID: 2}}, Page: 2, TotalPages: 10},
			{Data: []PostDTO{{ID: 3}}, Page: 3, TotalPages: 10},
		},
	}
	store := &memStore{}
	cfg := &config.IngestConfig{PageSize: 1, MaxPages: 2}

	s := NewSyncer(api, store, cfg, zerolog.Nop())
	if err := s.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(store.posts) != 2 {
		t.Errorf("posts written = %d, want 2 (page cap)", len(store.posts))
	}
}

func TestSyncerSurfacesAPIError(t *testing.T) {
	api := &fakeAPI{postsErr: errors.New("boom")}
	s := NewSyncer(api, &memStore{}, &config.IngestConfig{PageSize: 10}, zerolog.Nop())

	err := s.Sync(context.Background())
	if err == nil {
		t.Fatal("Sync() error = nil, want wrapped API error")
	}
	if !s.lastSync.IsZero() {
		t.Error("failed run must not advance the since bound")
	}
}
