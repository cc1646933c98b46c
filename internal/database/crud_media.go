// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helliott20/managarr-sub001/internal/models"
)

const mediaColumns = `id, external_id, type, title, path, size_bytes,
	resolution, quality_profile, rating, series_status, network,
	monitored, downloaded, protected, tags, watch_count, last_watched_at,
	added_at, metadata, created_at, updated_at`

// MediaFilter narrows ListMedia and CountMedia.
type MediaFilter struct {
	Type      string
	Protected *bool
	Limit     int
	Offset    int
}

// UpsertMedia inserts or refreshes a media snapshot, keyed on the
// integration-side identity (type, external_id). The sync boundary calls
// this; ID, CreatedAt and UpdatedAt are filled in as needed.
func (db *DB) UpsertMedia(ctx context.Context, m *models.Media) error {
	now := time.Now()

	var existingID string
	err := db.queryRow(ctx, "media",
		`SELECT id FROM media WHERE type = ? AND external_id = ?`,
		m.Type, m.ExternalID,
	).Scan(&existingID)

	switch {
	case err == nil:
		m.ID = existingID
		m.UpdatedAt = now
		query := `UPDATE media SET
			title = ?, path = ?, size_bytes = ?, resolution = ?, quality_profile = ?,
			rating = ?, series_status = ?, network = ?, monitored = ?, downloaded = ?,
			protected = ?, tags = ?, watch_count = ?, last_watched_at = ?, added_at = ?,
			metadata = ?, updated_at = ?
		WHERE id = ?`
		_, err = db.exec(ctx, "media", query,
			m.Title, m.Path, m.SizeBytes, m.Resolution, m.QualityProfile,
			m.Rating, m.SeriesStatus, m.Network, m.Monitored, m.Downloaded,
			m.Protected, marshalColumn(m.Tags, "[]"), m.WatchCount, m.LastWatchedAt, m.AddedAt,
			marshalColumn(m.Metadata, "null"), m.UpdatedAt, m.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update media: %w", err)
		}
		return nil

	case errors.Is(err, sql.ErrNoRows):
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
		query := `INSERT INTO media (` + mediaColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = db.exec(ctx, "media", query,
			m.ID, m.ExternalID, m.Type, m.Title, m.Path, m.SizeBytes,
			m.Resolution, m.QualityProfile, m.Rating, m.SeriesStatus, m.Network,
			m.Monitored, m.Downloaded, m.Protected, marshalColumn(m.Tags, "[]"),
			m.WatchCount, m.LastWatchedAt, m.AddedAt, marshalColumn(m.Metadata, "null"),
			m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert media: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("failed to look up media: %w", err)
	}
}

// GetMedia retrieves one media row by ID.
func (db *DB) GetMedia(ctx context.Context, id string) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = ?`
	row := db.queryRow(ctx, "media", query, id)
	return scanMedia(row.Scan)
}

// ListMedia retrieves media snapshots matching the filter, newest first.
func (db *DB) ListMedia(ctx context.Context, filter MediaFilter) ([]models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE 1=1`
	args := []any{}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Protected != nil {
		query += " AND protected = ?"
		args = append(args, *filter.Protected)
	}
	query += " ORDER BY added_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.query(ctx, "media", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	media := make([]models.Media, 0)
	for rows.Next() {
		m, err := scanMedia(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		media = append(media, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media: %w", err)
	}
	return media, nil
}

// CountMedia returns the number of media rows matching the filter.
func (db *DB) CountMedia(ctx context.Context, filter MediaFilter) (int, error) {
	query := `SELECT COUNT(*) FROM media WHERE 1=1`
	args := []any{}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, filter.Type)
	}
	if filter.Protected != nil {
		query += " AND protected = ?"
		args = append(args, *filter.Protected)
	}

	var count int
	if err := db.queryRow(ctx, "media", query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}

// SetMediaProtected flips the protected flag on one media row.
func (db *DB) SetMediaProtected(ctx context.Context, id string, protected bool) error {
	result, err := db.exec(ctx, "media",
		`UPDATE media SET protected = ?, updated_at = ? WHERE id = ?`,
		protected, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update media protection: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// DeleteMedia removes a media row, typically after the library item is gone
// from the integration.
func (db *DB) DeleteMedia(ctx context.Context, id string) error {
	result, err := db.exec(ctx, "media", `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMediaNotFound
	}
	return nil
}

// scanMedia scans one media row through the given scan function, which
// works for both *sql.Row and *sql.Rows.
func scanMedia(scan func(...any) error) (*models.Media, error) {
	var m models.Media
	var path, resolution, qualityProfile, seriesStatus, network sql.NullString
	var rating sql.NullFloat64
	var lastWatchedAt, addedAt sql.NullTime
	var tags, metadata any

	err := scan(
		&m.ID, &m.ExternalID, &m.Type, &m.Title, &path, &m.SizeBytes,
		&resolution, &qualityProfile, &rating, &seriesStatus, &network,
		&m.Monitored, &m.Downloaded, &m.Protected, &tags, &m.WatchCount, &lastWatchedAt,
		&addedAt, &metadata, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to scan media: %w", err)
	}

	m.Path = path.String
	m.Resolution = resolution.String
	m.QualityProfile = qualityProfile.String
	m.SeriesStatus = seriesStatus.String
	m.Network = network.String
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	if lastWatchedAt.Valid {
		t := lastWatchedAt.Time
		m.LastWatchedAt = &t
	}
	if addedAt.Valid {
		m.AddedAt = addedAt.Time
	}
	if err := unmarshalColumn(tags, &m.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode media tags: %w", err)
	}
	if err := unmarshalColumn(metadata, &m.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode media metadata: %w", err)
	}

	return &m, nil
}
