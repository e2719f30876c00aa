// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package ingest

import (
	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/models"
)

// completionThreshold is the watched fraction at which a play_end counts as a
// completed listen even without an eof reason.
const completionThreshold = 0.8

// recordEvent classifies one deduplicated payload and writes the derived
// records. Every event first resolves its Track through the entity store;
// kinds without a routing rule contribute only the track upsert.
func recordEvent(tx *database.Tx, payload Payload) error {
	sourceURL := payload.Path()
	sourceKind := GuessSourceKind(sourceURL)
	occurredAt := payload.OccurredAt()
	sessionID := payload.SessionID()
	playbackTime := payload.PlaybackTime()
	duration := payload.Duration()

	trackID, err := tx.UpsertTrack(database.TrackUpsert{
		Title:       payload.Title(),
		Artist:      payload.Artist(),
		DurationSec: duration,
		SourceKind:  sourceKind,
		SourceURL:   sourceURL,
	})
	if err != nil {
		return err
	}

	switch payload.EventName() {
	case "play_start":
		return tx.InsertPlayEvent(database.PlayEventInsert{
			OccurredAt:      occurredAt,
			TrackID:         trackID,
			SourceURL:       sourceURL,
			SourceKind:      sourceKind,
			Action:          models.ActionPlayStart,
			PlaybackTimeSec: playbackTime,
			DurationSec:     duration,
			SessionID:       sessionID,
		})

	case "play_end":
		reason := payload.Reason()
		completed := reason == "eof"
		if duration != nil && playbackTime != nil && *duration > 0 {
			completed = completed || (*playbackTime / *duration) >= completionThreshold
		}
		var reasonPtr *string
		if reason != "" {
			reasonPtr = &reason
		}
		return tx.InsertPlayEvent(database.PlayEventInsert{
			OccurredAt:      occurredAt,
			TrackID:         trackID,
			SourceURL:       sourceURL,
			SourceKind:      sourceKind,
			Action:          models.ActionPlayEnd,
			Completed:       completed,
			Reason:          reasonPtr,
			PlaybackTimeSec: playbackTime,
			DurationSec:     duration,
			SessionID:       sessionID,
		})

	case "good", "bad":
		return tx.InsertFeedbackEvent(database.FeedbackEventInsert{
			OccurredAt: occurredAt,
			TrackID:    trackID,
			SourceURL:  sourceURL,
			SourceKind: sourceKind,
			Kind:       payload.EventName(),
			Weight:     1.0,
			SessionID:  sessionID,
		})

	case "next":
		reason := payload.Reason()
		if reason == "" {
			reason = "manual_next"
		}
		return tx.InsertPlayEvent(database.PlayEventInsert{
			OccurredAt:      occurredAt,
			TrackID:         trackID,
			SourceURL:       sourceURL,
			SourceKind:      sourceKind,
			Action:          models.ActionNext,
			Reason:          &reason,
			PlaybackTimeSec: playbackTime,
			DurationSec:     duration,
			SessionID:       sessionID,
		})
	}

	return nil
}
