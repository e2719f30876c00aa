// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tunehub/config.yaml",
	"/etc/tunehub/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are applied
// first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:      "/data/tunehub.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Ingest: IngestConfig{
			LogPath:    "/data/events.jsonl",
			StreamName: "events",
			Interval:   time.Minute,
		},
		Recommend: RecommendConfig{
			Limit:            20,
			RecentWindow:     20,
			RecentPenalty:    1.5,
			DiversityPenalty: 2.5,
			Engine:           "auto",
		},
		Model: ModelConfig{
			Path:           "/data/model",
			TopN:           200,
			K:              64,
			TrainInterval:  24 * time.Hour,
			TrainOnStartup: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if found)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, checking CONFIG_PATH first and
// then the default paths. Returns empty string if none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - DB_PATH -> database.path
//   - EVENTS_LOG_PATH -> ingest.log_path
//   - RECOMMEND_ENGINE -> recommend.engine
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Database mappings
		"db_path":       "database.path",
		"db_max_memory": "database.max_memory",
		"db_threads":    "database.threads",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Ingest mappings
		"events_log_path":    "ingest.log_path",
		"ingest_stream_name": "ingest.stream_name",
		"ingest_interval":    "ingest.interval",

		// Recommendation mappings
		"recommend_limit":             "recommend.limit",
		"recommend_recent_window":     "recommend.recent_window",
		"recommend_recent_penalty":    "recommend.recent_penalty",
		"recommend_diversity_penalty": "recommend.diversity_penalty",
		"recommend_engine":            "recommend.engine",

		// Model mappings
		"model_path":             "model.path",
		"model_topn":             "model.topn",
		"model_k":                "model.k",
		"model_train_interval":   "model.train_interval",
		"model_train_on_startup": "model.train_on_startup",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unknown variables are ignored rather than guessed at.
	return ""
}
