// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tunehub/tunehub/internal/models"
)

// ModelTrainer is the interface the training service drives. It matches
// neighborhood.Trainer without importing it.
type ModelTrainer interface {
	// Train runs one training pass and reports the structured outcome.
	Train(ctx context.Context) (models.TrainResult, error)
}

// TrainServiceConfig holds configuration for the model training service.
type TrainServiceConfig struct {
	// TrainOnStartup triggers a training pass when the service starts.
	TrainOnStartup bool

	// TrainInterval is how often to retrain the model.
	TrainInterval time.Duration
}

// TrainService retrains the neighborhood model on a schedule under suture
// supervision. Declined training (insufficient data, missing backend) is a
// normal outcome, logged and retried on the next tick.
type TrainService struct {
	trainer ModelTrainer
	config  TrainServiceConfig
	logger  zerolog.Logger
	name    string
}

// NewTrainService creates a new model training service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTrainService(trainer ModelTrainer, cfg TrainServiceConfig, logger zerolog.Logger) *TrainService {
	return &TrainService{
		trainer: trainer,
		config:  cfg,
		logger:  logger.With().Str("service", "train").Logger(),
		name:    "train-service",
	}
}

// Serve implements the suture.Service interface.
func (s *TrainService) Serve(ctx context.Context) error {
	if s.config.TrainInterval <= 0 {
		s.config.TrainInterval = 24 * time.Hour
	}

	s.logger.Info().
		Bool("train_on_startup", s.config.TrainOnStartup).
		Dur("train_interval", s.config.TrainInterval).
		Msg("training service starting")

	if s.config.TrainOnStartup {
		s.train(ctx)
	}

	ticker := time.NewTicker(s.config.TrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("training service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.train(ctx)
		}
	}
}

// train runs one training cycle. Storage faults are logged and retried on
// the next tick.
func (s *TrainService) train(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := s.trainer.Train(trainCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("training pass failed")
		return
	}
	if !result.OK {
		s.logger.Info().
			Str("reason", result.Message).
			Int("contexts", result.Contexts).
			Int("tracks", result.Tracks).
			Msg("training declined")
		return
	}
	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("contexts", result.Contexts).
		Int("tracks", result.Tracks).
		Int("persisted", result.Persisted).
		Msg("training pass complete")
}

// String returns the service name for logging.
func (s *TrainService) String() string {
	return s.name
}
