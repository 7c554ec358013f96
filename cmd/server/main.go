// FeedEngine - Hybrid Feed Recommendation Service
// Copyright 2026 InspireHub
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/inspirehub/feedengine

// Package main is the entry point for the FeedEngine server.
//
// FeedEngine serves a hybrid recommendation feed: content similarity
// over post titles, categories, and mood tags, blended with item-item
// collaborative filtering over the interaction log, with a popularity
// fallback for users without history.
//
// Startup order:
//
//  1. Configuration: koanf v2 layered sources (defaults, YAML file,
//     FEEDENGINE_* environment variables)
//  2. Store: SQLite catalog and interaction log
//  3. Optional CSV bootstrap via -import-posts / -import-interactions
//  4. Engine: model snapshot builder
//  5. Supervisor tree: ingestion loop, rebuild scheduler, HTTP API
//
// The server shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/inspirehub/feedengine/internal/api"
	"github.com/inspirehub/feedengine/internal/config"
	"github.com/inspirehub/feedengine/internal/etl"
	"github.com/inspirehub/feedengine/internal/ingest"
	"github.com/inspirehub/feedengine/internal/logging"
	"github.com/inspirehub/feedengine/internal/recommend"
	"github.com/inspirehub/feedengine/internal/store"
	"github.com/inspirehub/feedengine/internal/supervisor"
	"github.com/inspirehub/feedengine/internal/supervisor/services"
)

// bootstrapFiles holds the optional CSV paths given on the command line.
type bootstrapFiles struct {
	posts        string
	interactions string
}

func main() {
	configPath := flag.String("config", "", "path to config file (overrides FEEDENGINE_CONFIG)")
	importPosts := flag.String("import-posts", "", "CSV file of posts to load into the store before startup")
	importInteractions := flag.String("import-interactions", "", "CSV file of interactions to load into the store before startup")
	flag.Parse()

	if *configPath != "" {
		os.Setenv(config.ConfigPathEnvVar, *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logger.Info().Msg("starting FeedEngine")

	files := bootstrapFiles{posts: *importPosts, interactions: *importInteractions}
	if err := run(cfg, files); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("FeedEngine stopped")
}

func run(cfg *config.Config, files bootstrapFiles) error {
	logger := logging.Logger()

	db, err := store.Open(cfg.Database.Path, cfg.Database.BusyTimeout, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("store close failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bootstrap(ctx, db, files); err != nil {
		return err
	}

	engine, err := recommend.NewEngine(cfg.EngineConfig(), logger, db)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	tree := supervisor.NewTree(
		slog.New(logging.NewSlogHandler()),
		supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout},
	)

	if cfg.Ingest.Enabled {
		client := ingest.NewBreakerClient(ingest.NewClient(&cfg.Ingest), logger)
		syncer := ingest.NewSyncer(client, db, &cfg.Ingest, logger)
		tree.AddDataService(services.NewIngestService(syncer, logger))
	} else {
		logger.Info().Msg("feed API ingestion disabled")
	}

	tree.AddModelService(services.NewRebuildService(engine, services.RebuildServiceConfig{
		OnStartup: cfg.Recommend.RebuildOnStartup,
		Interval:  cfg.Recommend.RebuildInterval,
		Timeout:   cfg.Recommend.RebuildTimeout,
	}, logger))

	handler := api.NewHandler(engine)
	if cfg.Server.CacheTTL > 0 {
		handler.EnableFeedCache(cfg.Server.CacheTTL)
	}
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logger.Info().
		Str("addr", server.Addr).
		Bool("ingest", cfg.Ingest.Enabled).
		Msg("supervisor tree starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}
	return nil
}

// bootstrap loads the optional CSV files into the store. A schema error
// in either file aborts startup; a half-loaded catalog would poison the
// first snapshot.
func bootstrap(ctx context.Context, db *store.Store, files bootstrapFiles) error {
	if files.posts == "" && files.interactions == "" {
		return nil
	}

	loader := etl.NewLoader(logging.Logger())

	if files.posts != "" {
		n, err := loader.ImportPostsFile(ctx, files.posts, db)
		if err != nil {
			return fmt.Errorf("import posts: %w", err)
		}
		logging.Info().Int("posts", n).Str("file", files.posts).Msg("post catalog imported")
	}

	if files.interactions != "" {
		n, err := loader.ImportInteractionsFile(ctx, files.interactions, db)
		if err != nil {
			return fmt.Errorf("import interactions: %w", err)
		}
		logging.Info().Int("interactions", n).Str("file", files.interactions).Msg("interaction log imported")
	}
	return nil
}
