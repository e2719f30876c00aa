// Tunehub - Playback Event Analytics and Music Recommendations
// Copyright 2026 Tunehub Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tunehub/tunehub

// Package importer normalizes arbitrary exported-library JSON into tracks and
// synthetic history. Field names vary wildly between exporters, so every
// lookup tries an ordered list of candidate keys and takes the first usable
// match.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Item is one normalized import entry.
type Item struct {
	Title       *string
	Artist      *string
	SourceURL   *string
	DurationSec *float64
	SourceKind  string
	Liked       bool
	Disliked    bool
	PlayCount   int
	OccurredAt  time.Time
}

// coerceItems accepts either a list of objects or a map holding one
// list-valued key among items|tracks|songs|data, and returns the object list.
func coerceItems(data any) []map[string]any {
	pick := func(list []any) []map[string]any {
		out := make([]map[string]any, 0, len(list))
		for _, v := range list {
			if m, ok := v.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}

	switch v := data.(type) {
	case []any:
		return pick(v)
	case map[string]any:
		for _, key := range []string{"items", "tracks", "songs", "data"} {
			if list, ok := v[key].([]any); ok {
				return pick(list)
			}
		}
	}
	return nil
}

// normalizeItem maps one raw object into the common Item shape.
func normalizeItem(raw map[string]any, sourceKind string) Item {
	return Item{
		Title:       extractTitle(raw),
		Artist:      extractArtist(raw),
		SourceURL:   extractURL(raw),
		DurationSec: extractDuration(raw),
		SourceKind:  sourceKind,
		Liked:       truthy(raw["liked"]) || truthy(raw["isLiked"]) || truthy(raw["favorite"]),
		Disliked:    truthy(raw["disliked"]) || truthy(raw["isDisliked"]) || truthy(raw["banned"]),
		PlayCount:   extractPlayCount(raw),
		OccurredAt:  extractTime(raw),
	}
}

func extractTitle(item map[string]any) *string {
	for _, key := range []string{"title", "name", "song", "track", "videoTitle"} {
		if v, ok := item[key].(string); ok && strings.TrimSpace(v) != "" {
			t := strings.TrimSpace(v)
			return &t
		}
	}
	return nil
}

// extractArtist handles plain strings, lists of strings, and lists of
// objects carrying a name field. Multiple artists join with ", ".
func extractArtist(item map[string]any) *string {
	for _, key := range []string{"artist", "artists", "author", "uploader"} {
		switch v := item[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				a := strings.TrimSpace(v)
				return &a
			}
		case []any:
			var parts []string
			for _, x := range v {
				if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
					parts = append(parts, strings.TrimSpace(s))
				}
			}
			if len(parts) > 0 {
				a := strings.Join(parts, ", ")
				return &a
			}
		}
	}

	if list, ok := item["artists"].([]any); ok {
		var names []string
		for _, x := range list {
			if m, ok := x.(map[string]any); ok {
				if n, ok := m["name"].(string); ok && strings.TrimSpace(n) != "" {
					names = append(names, strings.TrimSpace(n))
				}
			}
		}
		if len(names) > 0 {
			a := strings.Join(names, ", ")
			return &a
		}
	}
	return nil
}

// extractURL falls back to synthesizing a YouTube Music watch URL from a
// video id when no URL field is present.
func extractURL(item map[string]any) *string {
	for _, key := range []string{"url", "source_url", "videoUrl", "webpage_url", "link"} {
		if v, ok := item[key].(string); ok && strings.TrimSpace(v) != "" {
			u := strings.TrimSpace(v)
			return &u
		}
	}
	for _, key := range []string{"videoId", "video_id"} {
		if v, ok := item[key].(string); ok && strings.TrimSpace(v) != "" {
			u := fmt.Sprintf("https://music.youtube.com/watch?v=%s", strings.TrimSpace(v))
			return &u
		}
	}
	return nil
}

func extractDuration(item map[string]any) *float64 {
	for _, key := range []string{"duration_sec", "duration", "lengthSeconds"} {
		if f := toFloat(item[key]); f != nil {
			return f
		}
	}
	return nil
}

func extractPlayCount(item map[string]any) int {
	for _, key := range []string{"play_count", "playCount"} {
		if f := toFloat(item[key]); f != nil && *f > 0 {
			return int(*f)
		}
	}
	return 0
}

func extractTime(item map[string]any) time.Time {
	for _, key := range []string{"time", "occurred_at", "played_at", "timestamp", "addedAt"} {
		if v, ok := item[key].(string); ok && strings.TrimSpace(v) != "" {
			for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
				if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
					return t.UTC()
				}
			}
		}
	}
	return time.Now().UTC()
}

func toFloat(v any) *float64 {
	switch x := v.(type) {
	case float64:
		return &x
	case int:
		f := float64(x)
		return &f
	case int64:
		f := float64(x)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return &f
		}
	}
	return nil
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return false
	}
}
