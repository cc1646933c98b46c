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

const historyColumns = `id, trigger_type, started_at, finished_at, total,
	succeeded, failed, bytes_freed, items, created_at`

// HistoryFilter narrows ListHistory and CountHistory.
type HistoryFilter struct {
	Trigger string
	Limit   int
	Offset  int
}

// CreateHistory appends one execution pass record. History is append-only;
// no update or delete methods exist on purpose.
func (db *DB) CreateHistory(ctx context.Context, h *models.DeletionHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	query := `INSERT INTO deletion_history (` + historyColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.exec(ctx, "deletion_history", query,
		h.ID, h.Trigger, h.StartedAt, h.FinishedAt, h.Total,
		h.Succeeded, h.Failed, h.BytesFreed, marshalColumn(h.Items, "[]"), h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

// GetHistory retrieves one pass record by ID.
func (db *DB) GetHistory(ctx context.Context, id string) (*models.DeletionHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM deletion_history WHERE id = ?`
	row := db.queryRow(ctx, "deletion_history", query, id)
	return scanHistory(row.Scan)
}

// ListHistory retrieves pass records, most recent first.
func (db *DB) ListHistory(ctx context.Context, filter HistoryFilter) ([]models.DeletionHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM deletion_history WHERE 1=1`
	args := []any{}

	if filter.Trigger != "" {
		query += " AND trigger_type = ?"
		args = append(args, filter.Trigger)
	}
	query += " ORDER BY started_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.query(ctx, "deletion_history", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	history := make([]models.DeletionHistory, 0)
	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		history = append(history, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return history, nil
}

// CountHistory returns the number of pass records matching the filter.
func (db *DB) CountHistory(ctx context.Context, filter HistoryFilter) (int, error) {
	query := `SELECT COUNT(*) FROM deletion_history WHERE 1=1`
	args := []any{}
	if filter.Trigger != "" {
		query += " AND trigger_type = ?"
		args = append(args, filter.Trigger)
	}

	var count int
	if err := db.queryRow(ctx, "deletion_history", query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// scanHistory scans one history row through the given scan function.
func scanHistory(scan func(...any) error) (*models.DeletionHistory, error) {
	var h models.DeletionHistory
	var items any

	err := scan(
		&h.ID, &h.Trigger, &h.StartedAt, &h.FinishedAt, &h.Total,
		&h.Succeeded, &h.Failed, &h.BytesFreed, &items, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("failed to scan history entry: %w", err)
	}

	if err := unmarshalColumn(items, &h.Items); err != nil {
		return nil, fmt.Errorf("failed to decode history items: %w", err)
	}
	return &h, nil
}
