// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package importer

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/models"
)

// maxSyntheticPlays caps the completed plays written per imported item so a
// bulk import cannot inflate synthetic history.
const maxSyntheticPlays = 5

// Fetcher retrieves items from a live external service. It is a capability:
// when none is wired the live import degrades to a reported soft failure,
// never a crash.
type Fetcher interface {
	// Source labels the provenance of fetched items, e.g. "ytm-live".
	Source() string
	// SourceKind classifies the origin for TrackSource rows.
	SourceKind() string
	// Fetch returns raw item objects plus free-text diagnostic notes.
	Fetch(ctx context.Context) ([]map[string]any, []string, error)
}

// Importer writes normalized library exports into the store.
type Importer struct {
	db *database.DB
}

// New creates an Importer.
func New(db *database.DB) *Importer {
	return &Importer{db: db}
}

// ImportFile imports one exported-library JSON file. The sourceKind labels
// the TrackSource rows; the import label on synthetic events is
// "<sourceKind>-json".
func (imp *Importer) ImportFile(ctx context.Context, path, sourceKind string) (models.ImportStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.ImportStats{}, fmt.Errorf("failed to read import file: %w", err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.ImportStats{}, fmt.Errorf("failed to parse import file: %w", err)
	}

	stats, err := imp.importRaw(ctx, coerceItems(data), sourceKind, sourceKind+"-json")
	if err != nil {
		return models.ImportStats{}, err
	}
	stats.Notes = append(stats.Notes, "file="+path)
	return stats, nil
}

// ImportLive imports from a live service through a Fetcher. A missing or
// failing fetcher is a soft failure reported in the stats notes.
func (imp *Importer) ImportLive(ctx context.Context, fetcher Fetcher) (models.ImportStats, error) {
	if fetcher == nil {
		return models.ImportStats{
			Notes: []string{"live import unavailable: no fetcher configured"},
		}, nil
	}

	items, notes, err := fetcher.Fetch(ctx)
	if err != nil {
		return models.ImportStats{
			Notes: append(notes, fmt.Sprintf("%s fetch failed: %v", fetcher.Source(), err)),
		}, nil
	}

	stats, err := imp.importRaw(ctx, items, fetcher.SourceKind(), fetcher.Source())
	if err != nil {
		return models.ImportStats{}, err
	}
	stats.Notes = append(stats.Notes, notes...)
	return stats, nil
}

// importRaw normalizes and writes a batch of raw items in one transaction.
func (imp *Importer) importRaw(ctx context.Context, rawItems []map[string]any, sourceKind, label string) (models.ImportStats, error) {
	items := make([]Item, 0, len(rawItems))
	for _, raw := range rawItems {
		items = append(items, normalizeItem(raw, sourceKind))
	}
	return imp.ImportItems(ctx, items, label)
}

// ImportItems writes normalized items. Items lacking both title and URL are
// counted as skipped; the rest upsert their Track and emit synthetic
// feedback/play history tagged with the import label.
func (imp *Importer) ImportItems(ctx context.Context, items []Item, label string) (models.ImportStats, error) {
	var stats models.ImportStats
	note := "import:" + label

	err := imp.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, item := range items {
			if item.Title == nil && item.SourceURL == nil {
				stats.Skipped++
				continue
			}

			kind := item.SourceKind
			trackID, err := tx.UpsertTrack(database.TrackUpsert{
				Title:       item.Title,
				Artist:      item.Artist,
				DurationSec: item.DurationSec,
				SourceKind:  &kind,
				SourceURL:   item.SourceURL,
			})
			if err != nil {
				return err
			}
			stats.Tracks++

			if item.Liked {
				if err := tx.InsertFeedbackEvent(database.FeedbackEventInsert{
					OccurredAt: item.OccurredAt,
					TrackID:    trackID,
					SourceURL:  item.SourceURL,
					SourceKind: &kind,
					Kind:       models.FeedbackGood,
					Note:       &note,
				}); err != nil {
					return err
				}
				stats.Feedback++
			}
			if item.Disliked {
				if err := tx.InsertFeedbackEvent(database.FeedbackEventInsert{
					OccurredAt: item.OccurredAt,
					TrackID:    trackID,
					SourceURL:  item.SourceURL,
					SourceKind: &kind,
					Kind:       models.FeedbackBad,
					Note:       &note,
				}); err != nil {
					return err
				}
				stats.Feedback++
			}

			plays := item.PlayCount
			if plays > maxSyntheticPlays {
				plays = maxSyntheticPlays
			}
			for i := 0; i < plays; i++ {
				if err := tx.InsertPlayEvent(database.PlayEventInsert{
					OccurredAt:  item.OccurredAt,
					TrackID:     trackID,
					SourceURL:   item.SourceURL,
					SourceKind:  &kind,
					Action:      models.ActionPlayEnd,
					Completed:   true,
					Reason:      &note,
					DurationSec: item.DurationSec,
				}); err != nil {
					return err
				}
				stats.Plays++
			}
		}
		return nil
	})
	if err != nil {
		return models.ImportStats{}, err
	}

	logging.Info().
		Str("label", label).
		Int("tracks", stats.Tracks).
		Int("plays", stats.Plays).
		Int("feedback", stats.Feedback).
		Int("skipped", stats.Skipped).
		Msg("Import complete")

	return stats, nil
}
