// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package main is the entry point for the Tunehub daemon.
//
// Tunehub tails a music player's JSONL event log into DuckDB, maintains a
// canonical track store, and periodically retrains the neighborhood
// recommendation model. The daemon initializes components in order:
//
//  1. Configuration: layered defaults, config file, environment (Koanf v2)
//  2. Logging: zerolog, JSON or console output
//  3. Database: DuckDB with embedded schema
//  4. Supervisor tree: ingest layer (event log tailing) and model layer
//     (scheduled training), each restarted independently on failure
//
// # Signal Handling
//
// The daemon shuts down gracefully on SIGINT and SIGTERM: the supervisor
// tree drains its services, then the database is checkpointed and closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunehub/tunehub/internal/config"
	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/ingest"
	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/recommend/neighborhood"
	"github.com/tunehub/tunehub/internal/supervisor"
	"github.com/tunehub/tunehub/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Config errors surface through the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("events_log", cfg.Ingest.LogPath).
		Str("engine", cfg.Recommend.Engine).
		Msg("Starting Tunehub")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	reader := ingest.NewReader(db, cfg.Ingest.LogPath, cfg.Ingest.StreamName)
	store := neighborhood.NewStore(cfg.Model.Path)
	trainer := neighborhood.NewTrainer(db, store, neighborhood.NewBM25Backend(), cfg.Model.TopN, cfg.Model.K)

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddIngestService(services.NewIngestService(reader, services.IngestServiceConfig{
		Interval: cfg.Ingest.Interval,
	}, logging.Logger()))
	tree.AddModelService(services.NewTrainService(trainer, services.TrainServiceConfig{
		TrainOnStartup: cfg.Model.TrainOnStartup,
		TrainInterval:  cfg.Model.TrainInterval,
	}, logging.Logger()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain the error channel until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Tunehub stopped gracefully")
}
