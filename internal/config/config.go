// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package config loads and validates Tunehub configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//  1. Environment variables
//  2. Optional YAML config file
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for Tunehub.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Recommend RecommendConfig `koanf:"recommend"`
	Model     ModelConfig     `koanf:"model"`
}

// DatabaseConfig holds DuckDB connection settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file location.
	Path string `koanf:"path"`

	// MaxMemory is DuckDB's memory limit (e.g. "1GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IngestConfig holds event-log tailing settings.
type IngestConfig struct {
	// LogPath is the append-only JSONL event log produced by the player.
	LogPath string `koanf:"log_path"`

	// StreamName identifies the offset ledger row for this log.
	StreamName string `koanf:"stream_name"`

	// Interval is how often the ingest service runs a tail pass.
	Interval time.Duration `koanf:"interval"`
}

// RecommendConfig holds ranking and diversification settings.
//
// RecentWindow and the two penalties are deliberately configuration, not
// constants: they are tuning knobs with no single correct value.
type RecommendConfig struct {
	// Limit is the default number of recommendations returned.
	Limit int `koanf:"limit"`

	// RecentWindow is how many recently-touched tracks receive the
	// recent-repeat penalty.
	RecentWindow int `koanf:"recent_window"`

	// RecentPenalty is subtracted from the score of recently-touched tracks.
	RecentPenalty float64 `koanf:"recent_penalty"`

	// DiversityPenalty is the per-repeat artist penalty applied during
	// greedy diversification.
	DiversityPenalty float64 `koanf:"diversity_penalty"`

	// Engine selects the recommendation engine: auto, rule, or implicit.
	Engine string `koanf:"engine"`
}

// ModelConfig holds neighborhood-model training settings.
type ModelConfig struct {
	// Path is the directory holding the model cache artifacts.
	Path string `koanf:"path"`

	// TopN is how many recommendations a training run persists.
	TopN int `koanf:"topn"`

	// K is the neighborhood size for the item-item similarity model.
	K int `koanf:"k"`

	// TrainInterval is how often the train service retrains.
	TrainInterval time.Duration `koanf:"train_interval"`

	// TrainOnStartup triggers a training run when the service starts.
	TrainOnStartup bool `koanf:"train_on_startup"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Ingest.LogPath == "" {
		return fmt.Errorf("ingest.log_path must not be empty")
	}
	if c.Ingest.StreamName == "" {
		return fmt.Errorf("ingest.stream_name must not be empty")
	}
	if c.Ingest.Interval <= 0 {
		return fmt.Errorf("ingest.interval must be positive, got %s", c.Ingest.Interval)
	}
	if c.Recommend.Limit <= 0 {
		return fmt.Errorf("recommend.limit must be positive, got %d", c.Recommend.Limit)
	}
	if c.Recommend.RecentWindow < 0 {
		return fmt.Errorf("recommend.recent_window must not be negative, got %d", c.Recommend.RecentWindow)
	}
	switch c.Recommend.Engine {
	case "auto", "rule", "implicit":
	default:
		return fmt.Errorf("recommend.engine must be auto, rule, or implicit, got %q", c.Recommend.Engine)
	}
	if c.Model.Path == "" {
		return fmt.Errorf("model.path must not be empty")
	}
	if c.Model.TopN <= 0 {
		return fmt.Errorf("model.topn must be positive, got %d", c.Model.TopN)
	}
	if c.Model.K <= 0 {
		return fmt.Errorf("model.k must be positive, got %d", c.Model.K)
	}
	return nil
}
