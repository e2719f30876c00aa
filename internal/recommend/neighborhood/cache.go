// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package neighborhood

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/models"
)

const (
	cacheFileName = "implicit_recs.json"
	metaFileName  = "model_meta.json"
)

// Store persists the trained model cache. Writes go through a temp file and
// an atomic rename, so readers never observe a partial artifact.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save replaces the cache artifact and updates the training metadata sidecar.
func (s *Store) Save(cache *models.ModelCache) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	if err := s.writeAtomic(filepath.Join(s.dir, cacheFileName), cache); err != nil {
		return err
	}

	meta := s.loadMeta()
	meta[cache.Engine] = map[string]any{
		"created_at":      cache.CreatedAt,
		"contexts":        cache.Contexts,
		"items":           cache.Items,
		"recommendations": len(cache.Recommendations),
		"params":          cache.Params,
	}
	return s.writeAtomic(filepath.Join(s.dir, metaFileName), meta)
}

// Load reads the cache artifact. A missing or corrupt cache yields nil
// without error; serving treats both as "no model".
func (s *Store) Load() (*models.ModelCache, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, cacheFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model cache: %w", err)
	}

	var cache models.ModelCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		logging.Warn().Err(err).Msg("Model cache is corrupt, ignoring")
		return nil, nil
	}
	return &cache, nil
}

// loadMeta reads the metadata sidecar, tolerating absence and corruption.
func (s *Store) loadMeta() map[string]any {
	raw, err := os.ReadFile(filepath.Join(s.dir, metaFileName))
	if err != nil {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil || meta == nil {
		return map[string]any{}
	}
	return meta
}

// writeAtomic marshals payload to path via a temp file and rename.
func (s *Store) writeAtomic(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
