// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"strings"
	"time"
)

// Media type values. Managarr manages two library kinds: movies served by
// Radarr and series served by Sonarr.
const (
	MediaTypeMovie  = "movie"
	MediaTypeSeries = "series"
)

// Watch status values derived from watch counters, see Media.WatchStatus.
const (
	WatchStatusWatched    = "watched"
	WatchStatusInProgress = "inProgress"
	WatchStatusUnwatched  = "unwatched"
)

// Media is a locally synced snapshot of a library item as reported by the
// downloader integrations. Managarr never mutates library content through
// this record; it exists so rules can be evaluated without a network round
// trip per item. The sync boundary upserts these rows, everything else
// reads them.
//
// Fields:
//   - ID: Internal UUID (stable across re-syncs, keyed by integration + external ID)
//   - ExternalID: The item's ID inside Radarr/Sonarr, used for delete calls
//   - Type: "movie" or "series"
//   - SizeBytes: Total on-disk size of the item's files
//   - Rating: Primary community rating; may be absent, see EffectiveRating
//   - Protected: Operator flag; protected media never matches any rule
//   - WatchCount: Completed plays accumulated from the media server
//   - LastWatchedAt: Most recent play (complete or partial), nil if never played
type Media struct {
	ID             string         `json:"id"`
	ExternalID     int64          `json:"external_id"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Path           string         `json:"path,omitempty"`
	SizeBytes      int64          `json:"size_bytes"`
	Resolution     string         `json:"resolution,omitempty"`
	QualityProfile string         `json:"quality_profile,omitempty"`
	Rating         *float64       `json:"rating,omitempty"`
	SeriesStatus   string         `json:"series_status,omitempty"`
	Network        string         `json:"network,omitempty"`
	Monitored      bool           `json:"monitored"`
	Downloaded     bool           `json:"downloaded"`
	Protected      bool           `json:"protected"`
	Tags           []string       `json:"tags,omitempty"`
	WatchCount     int            `json:"watch_count"`
	LastWatchedAt  *time.Time     `json:"last_watched_at,omitempty"`
	AddedAt        time.Time      `json:"added_at"`
	Metadata       *MediaMetadata `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// MediaMetadata carries secondary metadata scraped from the media server.
// Kept separate from the core row because the sync source populates it
// best-effort; every field may be absent.
type MediaMetadata struct {
	Rating     *float64 `json:"rating,omitempty"`
	Overview   string   `json:"overview,omitempty"`
	Genres     []string `json:"genres,omitempty"`
	Year       int      `json:"year,omitempty"`
	ImdbID     string   `json:"imdb_id,omitempty"`
	TmdbID     int64    `json:"tmdb_id,omitempty"`
	TvdbID     int64    `json:"tvdb_id,omitempty"`
	PosterPath string   `json:"poster_path,omitempty"`
}

// EffectiveRating resolves the rating used by rating conditions.
// The primary Rating field wins; when it is absent the metadata rating is
// consulted. Returns (0, false) when neither source has a value, which
// rating conditions treat as "no data" rather than a failing match.
func (m *Media) EffectiveRating() (float64, bool) {
	if m.Rating != nil {
		return *m.Rating, true
	}
	if m.Metadata != nil && m.Metadata.Rating != nil {
		return *m.Metadata.Rating, true
	}
	return 0, false
}

// WatchStatus derives the coarse watch state used by watch conditions and
// evaluation stats. An item with at least one completed play is watched;
// an item with a recorded play time but no completed play is in progress.
func (m *Media) WatchStatus() string {
	if m.WatchCount > 0 {
		return WatchStatusWatched
	}
	if m.LastWatchedAt != nil {
		return WatchStatusInProgress
	}
	return WatchStatusUnwatched
}

// AgeDays returns whole days elapsed since the item was added to the
// library, relative to now.
func (m *Media) AgeDays(now time.Time) int {
	if m.AddedAt.IsZero() || now.Before(m.AddedAt) {
		return 0
	}
	return int(now.Sub(m.AddedAt).Hours() / 24)
}

// HasTag reports whether the media carries the given tag, compared
// case-insensitively.
func (m *Media) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
