// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package services provides suture service wrappers for Tunehub's
// long-running components.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunehub/tunehub/internal/models"
)

// IngestRunner is the interface the ingest service drives. It matches
// ingest.Reader without importing it, so the service stays free of storage
// concerns.
type IngestRunner interface {
	// Run performs one ingest pass over the event log.
	Run(ctx context.Context) (models.IngestStats, error)
}

// IngestServiceConfig holds configuration for the ingest service.
type IngestServiceConfig struct {
	// Interval is how often to poll the event log for new lines.
	Interval time.Duration
}

// IngestService tails the player event log on a fixed interval under suture
// supervision. Each pass is idempotent, so a restart after a crash simply
// resumes from the persisted offset.
type IngestService struct {
	runner IngestRunner
	config IngestServiceConfig
	logger zerolog.Logger
	name   string
}

// NewIngestService creates a new ingest service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewIngestService(runner IngestRunner, cfg IngestServiceConfig, logger zerolog.Logger) *IngestService {
	return &IngestService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "ingest").Logger(),
		name:   "ingest-service",
	}
}

// Serve implements the suture.Service interface. It runs one pass
// immediately, then polls on the configured interval.
func (s *IngestService) Serve(ctx context.Context) error {
	if s.config.Interval <= 0 {
		s.config.Interval = time.Minute
	}

	s.logger.Info().
		Dur("interval", s.config.Interval).
		Msg("ingest service starting")

	s.pass(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("ingest service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// pass runs one ingest pass and logs the outcome. Pass failures are logged,
// not returned: the next tick retries from the committed offset.
func (s *IngestService) pass(ctx context.Context) {
	stats, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ingest pass failed")
		return
	}
	if stats.Read == 0 {
		return
	}
	s.logger.Info().
		Int("read", stats.Read).
		Int("new", stats.New).
		Int("skipped", stats.Skipped).
		Int64("offset", stats.Offset).
		Msg("ingest pass complete")
}

// String returns the service name for logging.
func (s *IngestService) String() string {
	return s.name
}
