// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

package ingest

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tunehub/tunehub/internal/database"
	"github.com/tunehub/tunehub/internal/logging"
	"github.com/tunehub/tunehub/internal/models"
)

// Reader tails one named event stream. It is not safe to run two passes over
// the same stream concurrently; both would start from the same offset.
type Reader struct {
	db         *database.DB
	logPath    string
	streamName string
}

// NewReader creates a Reader for one log file and stream name.
func NewReader(db *database.DB, logPath, streamName string) *Reader {
	return &Reader{db: db, logPath: logPath, streamName: streamName}
}

// Run performs one tail pass: seek to the persisted offset, consume every
// available line, and commit all derived records together with the advanced
// offset in a single transaction. A crash before commit leaves the offset
// unchanged; re-running absorbs the replayed lines through the dedup ledger.
//
// Poison lines (unparseable JSON) are counted as skipped and the offset still
// advances past them, so one bad line cannot block the stream forever.
func (r *Reader) Run(ctx context.Context) (models.IngestStats, error) {
	var stats models.IngestStats

	f, err := os.Open(r.logPath)
	if os.IsNotExist(err) {
		return stats, nil
	}
	if err != nil {
		return stats, fmt.Errorf("failed to open event log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logging.Warn().Err(cerr).Str("path", r.logPath).Msg("Failed to close event log")
		}
	}()

	err = r.db.WithTx(ctx, func(tx *database.Tx) error {
		offset, err := tx.IngestOffset(r.streamName)
		if err != nil {
			return err
		}
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("failed to seek to offset %d: %w", offset, err)
		}

		cursor := offset
		reader := bufio.NewReader(f)
		for {
			line, readErr := reader.ReadString('\n')
			if len(line) > 0 {
				stats.Read++
				cursor += int64(len(line))
				if err := r.consumeLine(tx, line, cursor, &stats); err != nil {
					return err
				}
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				return fmt.Errorf("failed to read event log: %w", readErr)
			}
		}

		stats.Offset = cursor
		return nil
	})
	if err != nil {
		return models.IngestStats{}, err
	}

	logging.Debug().
		Str("stream", r.streamName).
		Int("read", stats.Read).
		Int("new", stats.New).
		Int("skipped", stats.Skipped).
		Int64("offset", stats.Offset).
		Msg("Ingest pass complete")

	return stats, nil
}

// consumeLine processes one raw line ending at lineEnd and advances the
// persisted offset past it on every outcome.
func (r *Reader) consumeLine(tx *database.Tx, line string, lineEnd int64, stats *models.IngestStats) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return tx.SetIngestOffset(r.streamName, lineEnd)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		stats.Skipped++
		return tx.SetIngestOffset(r.streamName, lineEnd)
	}

	sum := sha256.Sum256([]byte(trimmed))
	fresh, err := tx.InsertRawEvent(hex.EncodeToString(sum[:]), payload.EventName(), trimmed)
	if err != nil {
		return err
	}
	if !fresh {
		return tx.SetIngestOffset(r.streamName, lineEnd)
	}
	stats.New++

	if err := recordEvent(tx, payload); err != nil {
		return err
	}
	return tx.SetIngestOffset(r.streamName, lineEnd)
}
