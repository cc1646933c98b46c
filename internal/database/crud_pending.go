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

const pendingColumns = `id, media_id, rule_id, status, media_snapshot,
	rule_snapshot, snapshot_size_bytes, scheduled_date, proposed_at,
	proposed_by, approved_at, approved_by, cancelled_at, cancelled_by,
	cancel_reason, completed_at, failed_at, last_error, retry_count,
	execution_results, created_at, updated_at`

// PendingFilter narrows ListPending and CountPending.
type PendingFilter struct {
	Status  string
	RuleID  string
	MediaID string
	Limit   int
	Offset  int
}

// CreatePending persists a new pending deletion unless a non-terminal one
// already exists for the same (media, rule) pair. The existence check and
// insert happen in one statement so concurrent proposals cannot both slip
// through; the loser gets ErrDuplicatePending.
func (db *DB) CreatePending(ctx context.Context, p *models.PendingDeletion) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.ProposedAt.IsZero() {
		p.ProposedAt = now
	}
	if p.Status == "" {
		p.Status = models.StatusPending
	}

	query := `INSERT INTO pending_deletions (` + pendingColumns + `)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM pending_deletions
			WHERE media_id = ? AND rule_id = ?
			  AND status IN ('pending', 'approved', 'failed')
		)`

	result, err := db.exec(ctx, "pending_deletions", query,
		p.ID, p.MediaID, p.RuleID, p.Status,
		marshalColumn(p.MediaSnapshot, "null"),
		marshalColumn(p.RuleSnapshot, "null"),
		p.SnapshotSizeBytes, p.ScheduledDate, p.ProposedAt,
		p.ProposedBy, p.ApprovedAt, p.ApprovedBy, p.CancelledAt, p.CancelledBy,
		p.CancelReason, p.CompletedAt, p.FailedAt, p.LastError, p.RetryCount,
		marshalColumn(p.ExecutionResults, "[]"), p.CreatedAt, p.UpdatedAt,
		p.MediaID, p.RuleID,
	)
	if err != nil {
		return fmt.Errorf("failed to create pending deletion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDuplicatePending
	}
	return nil
}

// GetPending retrieves one pending deletion by ID.
func (db *DB) GetPending(ctx context.Context, id string) (*models.PendingDeletion, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_deletions WHERE id = ?`
	row := db.queryRow(ctx, "pending_deletions", query, id)
	return scanPending(row.Scan)
}

// ListPending retrieves pending deletions matching the filter, newest
// proposals first.
func (db *DB) ListPending(ctx context.Context, filter PendingFilter) ([]models.PendingDeletion, error) {
	query := `SELECT ` + pendingColumns + ` FROM pending_deletions WHERE 1=1`
	args := []any{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.RuleID != "" {
		query += " AND rule_id = ?"
		args = append(args, filter.RuleID)
	}
	if filter.MediaID != "" {
		query += " AND media_id = ?"
		args = append(args, filter.MediaID)
	}
	query += " ORDER BY proposed_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.query(ctx, "pending_deletions", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deletions: %w", err)
	}
	defer rows.Close()

	pending := make([]models.PendingDeletion, 0)
	for rows.Next() {
		p, err := scanPending(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending deletion: %w", err)
		}
		pending = append(pending, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending deletions: %w", err)
	}
	return pending, nil
}

// CountPending returns the number of pending deletions matching the filter.
func (db *DB) CountPending(ctx context.Context, filter PendingFilter) (int, error) {
	query := `SELECT COUNT(*) FROM pending_deletions WHERE 1=1`
	args := []any{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.RuleID != "" {
		query += " AND rule_id = ?"
		args = append(args, filter.RuleID)
	}
	if filter.MediaID != "" {
		query += " AND media_id = ?"
		args = append(args, filter.MediaID)
	}

	var count int
	if err := db.queryRow(ctx, "pending_deletions", query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pending deletions: %w", err)
	}
	return count, nil
}

// SummarizePending aggregates count and snapshot size per status.
func (db *DB) SummarizePending(ctx context.Context) ([]models.PendingSummary, error) {
	query := `SELECT status, COUNT(*), COALESCE(SUM(snapshot_size_bytes), 0)
		FROM pending_deletions GROUP BY status ORDER BY status`

	rows, err := db.query(ctx, "pending_deletions", query)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize pending deletions: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.PendingSummary, 0)
	for rows.Next() {
		var s models.PendingSummary
		if err := rows.Scan(&s.Status, &s.Count, &s.TotalSizeBytes); err != nil {
			return nil, fmt.Errorf("failed to scan pending summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending summaries: %w", err)
	}
	return summaries, nil
}

// ApprovePending transitions pending -> approved. The status check rides on
// the UPDATE itself, so a concurrent transition loses cleanly: zero rows
// affected means the row was not in pending anymore (ErrConflict) or never
// existed (ErrPendingNotFound).
func (db *DB) ApprovePending(ctx context.Context, id, actor string, scheduledDate *time.Time) error {
	now := time.Now()
	query := `UPDATE pending_deletions SET
		status = ?, approved_at = ?, approved_by = ?, scheduled_date = ?, updated_at = ?
	WHERE id = ? AND status = ?`

	result, err := db.exec(ctx, "pending_deletions", query,
		models.StatusApproved, now, actor, scheduledDate, now,
		id, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to approve pending deletion: %w", err)
	}
	return db.checkTransition(ctx, result, id)
}

// CancelPending transitions pending|approved -> cancelled, recording actor
// and reason. An already approved item keeps its approval fields alongside
// the cancellation.
func (db *DB) CancelPending(ctx context.Context, id, actor, reason string) error {
	now := time.Now()
	query := `UPDATE pending_deletions SET
		status = ?, cancelled_at = ?, cancelled_by = ?, cancel_reason = ?, updated_at = ?
	WHERE id = ? AND status IN (?, ?)`

	result, err := db.exec(ctx, "pending_deletions", query,
		models.StatusCancelled, now, actor, reason, now,
		id, models.StatusPending, models.StatusApproved,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel pending deletion: %w", err)
	}
	return db.checkTransition(ctx, result, id)
}

// ListDueForExecution returns items the execution engine should process:
// approved (and failed, when retries are enabled) with no scheduled date or
// one that has arrived. Ordered oldest proposal first so backlog drains in
// order; limit caps the batch.
func (db *DB) ListDueForExecution(ctx context.Context, now time.Time, retryFailed bool, limit int) ([]models.PendingDeletion, error) {
	statuses := []any{models.StatusApproved}
	placeholder := "?"
	if retryFailed {
		statuses = append(statuses, models.StatusFailed)
		placeholder = "?, ?"
	}

	query := `SELECT ` + pendingColumns + ` FROM pending_deletions
		WHERE status IN (` + placeholder + `)
		  AND (scheduled_date IS NULL OR scheduled_date <= ?)
		ORDER BY proposed_at, id`
	args := append(statuses, now)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.query(ctx, "pending_deletions", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list due deletions: %w", err)
	}
	defer rows.Close()

	due := make([]models.PendingDeletion, 0)
	for rows.Next() {
		p, err := scanPending(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due deletion: %w", err)
		}
		due = append(due, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due deletions: %w", err)
	}
	return due, nil
}

// CompleteExecution transitions approved|failed -> completed and appends
// the execution result.
func (db *DB) CompleteExecution(ctx context.Context, id string, result models.ExecutionResult) error {
	p, err := db.GetPending(ctx, id)
	if err != nil {
		return err
	}
	results := append(p.ExecutionResults, result)
	now := time.Now()

	query := `UPDATE pending_deletions SET
		status = ?, completed_at = ?, execution_results = ?, updated_at = ?
	WHERE id = ? AND status IN (?, ?)`

	res, err := db.exec(ctx, "pending_deletions", query,
		models.StatusCompleted, now, marshalColumn(results, "[]"), now,
		id, models.StatusApproved, models.StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to complete pending deletion: %w", err)
	}
	return db.checkTransition(ctx, res, id)
}

// FailExecution transitions approved|failed -> failed, appends the
// execution result, records the error, and bumps the retry counter.
func (db *DB) FailExecution(ctx context.Context, id string, result models.ExecutionResult) error {
	p, err := db.GetPending(ctx, id)
	if err != nil {
		return err
	}
	results := append(p.ExecutionResults, result)
	now := time.Now()

	query := `UPDATE pending_deletions SET
		status = ?, failed_at = ?, last_error = ?, retry_count = retry_count + 1,
		execution_results = ?, updated_at = ?
	WHERE id = ? AND status IN (?, ?)`

	res, err := db.exec(ctx, "pending_deletions", query,
		models.StatusFailed, now, result.Error,
		marshalColumn(results, "[]"), now,
		id, models.StatusApproved, models.StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to mark pending deletion failed: %w", err)
	}
	return db.checkTransition(ctx, res, id)
}

// checkTransition interprets a zero-rows-affected conditional UPDATE:
// missing row means not found, existing row means a status conflict.
func (db *DB) checkTransition(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	if _, err := db.GetPending(ctx, id); err != nil {
		if errors.Is(err, ErrPendingNotFound) {
			return ErrPendingNotFound
		}
		return err
	}
	return ErrConflict
}

// scanPending scans one pending deletion row through the given scan
// function.
func scanPending(scan func(...any) error) (*models.PendingDeletion, error) {
	var p models.PendingDeletion
	var mediaSnapshot, ruleSnapshot, executionResults any
	var scheduledDate, approvedAt, cancelledAt, completedAt, failedAt sql.NullTime
	var approvedBy, cancelledBy, cancelReason, lastError sql.NullString

	err := scan(
		&p.ID, &p.MediaID, &p.RuleID, &p.Status, &mediaSnapshot,
		&ruleSnapshot, &p.SnapshotSizeBytes, &scheduledDate, &p.ProposedAt,
		&p.ProposedBy, &approvedAt, &approvedBy, &cancelledAt, &cancelledBy,
		&cancelReason, &completedAt, &failedAt, &lastError, &p.RetryCount,
		&executionResults, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPendingNotFound
		}
		return nil, fmt.Errorf("failed to scan pending deletion: %w", err)
	}

	if scheduledDate.Valid {
		t := scheduledDate.Time
		p.ScheduledDate = &t
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		p.ApprovedAt = &t
	}
	if approvedBy.Valid {
		s := approvedBy.String
		p.ApprovedBy = &s
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		p.CancelledAt = &t
	}
	if cancelledBy.Valid {
		s := cancelledBy.String
		p.CancelledBy = &s
	}
	if cancelReason.Valid {
		s := cancelReason.String
		p.CancelReason = &s
	}
	if completedAt.Valid {
		t := completedAt.Time
		p.CompletedAt = &t
	}
	if failedAt.Valid {
		t := failedAt.Time
		p.FailedAt = &t
	}
	if lastError.Valid {
		s := lastError.String
		p.LastError = &s
	}
	if err := unmarshalColumn(mediaSnapshot, &p.MediaSnapshot); err != nil {
		return nil, fmt.Errorf("failed to decode media snapshot: %w", err)
	}
	if err := unmarshalColumn(ruleSnapshot, &p.RuleSnapshot); err != nil {
		return nil, fmt.Errorf("failed to decode rule snapshot: %w", err)
	}
	if err := unmarshalColumn(executionResults, &p.ExecutionResults); err != nil {
		return nil, fmt.Errorf("failed to decode execution results: %w", err)
	}

	return &p, nil
}
