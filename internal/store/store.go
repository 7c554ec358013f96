// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package store provides SQLite persistence for FeedEngine: the raw
// post catalog and interaction log written by the ingestion job, and
// the aggregated views the recommendation engine reads at rebuild time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/inspirehub/feedengine/internal/metrics"
	"github.com/inspirehub/feedengine/internal/models"
	"github.com/inspirehub/feedengine/internal/recommend"
)

// Store handles SQLite persistence. All methods are safe for concurrent
// use; SQLite serializes writers and WAL mode keeps readers unblocked.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Compile-time check that the store can feed the engine.
var _ recommend.DataProvider = (*Store)(nil)

// Open creates a Store at the given database path, creating tables as
// needed. Pass ":memory:" for an in-process database in tests.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(path string, busyTimeout time.Duration, logger zerolog.Logger) (*Store, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}
	if busyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout.Milliseconds())); err != nil {
			db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY,
		title TEXT,
		category_id INTEGER NOT NULL DEFAULT 0,
		category_name TEXT,
		mood_tags TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY,
		username TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		post_id INTEGER NOT NULL,
		interaction_type TEXT NOT NULL,
		rating_percent REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		UNIQUE(user_id, post_id, interaction_type, created_at)
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_post ON interactions(post_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertPosts inserts or replaces catalog rows.
func (s *Store) UpsertPosts(ctx context.Context, posts []models.Post) error {
	start := time.Now()
	err := s.upsertPosts(ctx, posts)
	metrics.ObserveStoreQuery("upsert_posts", time.Since(start), err)
	return err
}

func (s *Store) upsertPosts(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, title, category_id, category_name, mood_tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			mood_tags = excluded.mood_tags,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range posts {
		p := &posts[i]
		if _, err := stmt.ExecContext(ctx, p.ID, p.Title, p.CategoryID, p.CategoryName, p.MoodTags, now); err != nil {
			return fmt.Errorf("upsert post %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug().Int("posts", len(posts)).Msg("catalog upserted")
	return nil
}

// UpsertUsers inserts or replaces user directory rows.
func (s *Store) UpsertUsers(ctx context.Context, users []models.User) error {
	start := time.Now()
	err := s.upsertUsers(ctx, users)
	metrics.ObserveStoreQuery("upsert_users", time.Since(start), err)
	return err
}

func (s *Store) upsertUsers(ctx context.Context, users []models.User) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (id, username, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range users {
		u := &users[i]
		if _, err := stmt.ExecContext(ctx, u.ID, u.Username, now); err != nil {
			return fmt.Errorf("upsert user %d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug().Int("users", len(users)).Msg("user directory upserted")
	return nil
}

// InsertInteractions appends interaction rows. Exact duplicates are
// ignored so ingestion runs can safely overlap.
func (s *Store) InsertInteractions(ctx context.Context, interactions []models.Interaction) (int, error) {
	start := time.Now()
	n, err := s.insertInteractions(ctx, interactions)
	metrics.ObserveStoreQuery("insert_interactions", time.Since(start), err)
	return n, err
}

func (s *Store) insertInteractions(ctx context.Context, interactions []models.Interaction) (int, error) {
	if len(interactions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO interactions
			(user_id, post_id, interaction_type, rating_percent, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for i := range interactions {
		in := &interactions[i]
		res, err := stmt.ExecContext(ctx, in.UserID, in.PostID, in.Type.String(), in.RatingPercent, in.Timestamp.UTC())
		if err != nil {
			return inserted, fmt.Errorf("insert interaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// GetPosts returns the catalog with aggregate engagement counters
// computed from the interaction log. Implements recommend.DataProvider.
func (s *Store) GetPosts(ctx context.Context) ([]models.Post, error) {
	start := time.Now()
	posts, err := s.getPosts(ctx)
	metrics.ObserveStoreQuery("get_posts", time.Since(start), err)
	return posts, err
}

func (s *Store) getPosts(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			p.id,
			COALESCE(p.title, ''),
			p.category_id,
			COALESCE(p.category_name, ''),
			COALESCE(p.mood_tags, ''),
			COALESCE(SUM(CASE WHEN i.interaction_type = 'viewed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.interaction_type = 'liked' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.interaction_type = 'inspired' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN i.interaction_type = 'rated' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN i.interaction_type = 'rated' THEN i.rating_percent END), 0)
		FROM posts p
		LEFT JOIN interactions i ON i.post_id = p.id
		GROUP BY p.id
		ORDER BY p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.CategoryID, &p.CategoryName, &p.MoodTags,
			&p.TotalViews, &p.TotalLikes, &p.TotalInspirations, &p.TotalRatings,
			&p.AverageRating,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetInteractions returns the interaction log ordered by time.
// Implements recommend.DataProvider.
func (s *Store) GetInteractions(ctx context.Context) ([]models.Interaction, error) {
	start := time.Now()
	interactions, err := s.getInteractions(ctx)
	metrics.ObserveStoreQuery("get_interactions", time.Since(start), err)
	return interactions, err
}

func (s *Store) getInteractions(ctx context.Context) ([]models.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, post_id, interaction_type, rating_percent, created_at
		FROM interactions
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []models.Interaction
	for rows.Next() {
		var in models.Interaction
		var kind string
		if err := rows.Scan(&in.UserID, &in.PostID, &kind, &in.RatingPercent, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		t, ok := models.ParseInteractionType(kind)
		if !ok {
			s.logger.Warn().Str("interaction_type", kind).Msg("unknown interaction type, skipping row")
			continue
		}
		in.Type = t
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// Counts returns the raw table sizes, for the status endpoint.
func (s *Store) Counts(ctx context.Context) (posts, interactions int64, err error) {
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM posts").Scan(&posts); err != nil {
		return 0, 0, fmt.Errorf("count posts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM interactions").Scan(&interactions); err != nil {
		return 0, 0, fmt.Errorf("count interactions: %w", err)
	}
	return posts, interactions, nil
}
