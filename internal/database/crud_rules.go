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

const ruleColumns = `id, name, description, enabled, media_types, conditions,
	filters_enabled, strategy, schedule, next_run_at, last_run_at,
	created_at, updated_at`

// RuleFilter narrows ListRules and CountRules.
type RuleFilter struct {
	EnabledOnly bool
	Limit       int
	Offset      int
}

// CreateRule persists a new deletion rule. Rule names are unique.
func (db *DB) CreateRule(ctx context.Context, rule *models.DeletionRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now()
	}
	rule.UpdatedAt = rule.CreatedAt

	query := `INSERT INTO deletion_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.exec(ctx, "deletion_rules", query,
		rule.ID, rule.Name, rule.Description, rule.Enabled,
		marshalColumn(rule.MediaTypes, "[]"),
		marshalColumn(rule.Conditions, "{}"),
		marshalColumn(rule.FiltersEnabled, "{}"),
		marshalColumn(rule.Strategy, "{}"),
		marshalColumn(rule.Schedule, "{}"),
		rule.NextRunAt, rule.LastRunAt,
		rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRuleNameConflict
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}

// GetRule retrieves one rule by ID.
func (db *DB) GetRule(ctx context.Context, id string) (*models.DeletionRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM deletion_rules WHERE id = ?`
	row := db.queryRow(ctx, "deletion_rules", query, id)
	return scanRule(row.Scan)
}

// ListRules retrieves rules matching the filter, newest first.
func (db *DB) ListRules(ctx context.Context, filter RuleFilter) ([]models.DeletionRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM deletion_rules WHERE 1=1`
	args := []any{}

	if filter.EnabledOnly {
		query += " AND enabled = true"
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.query(ctx, "deletion_rules", query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.DeletionRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// CountRules returns the number of rules matching the filter.
func (db *DB) CountRules(ctx context.Context, filter RuleFilter) (int, error) {
	query := `SELECT COUNT(*) FROM deletion_rules WHERE 1=1`
	if filter.EnabledOnly {
		query += " AND enabled = true"
	}

	var count int
	if err := db.queryRow(ctx, "deletion_rules", query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return count, nil
}

// ListDueRules returns enabled, non-manual rules whose next run time has
// arrived. The scheduler runs these in propose mode on each tick.
func (db *DB) ListDueRules(ctx context.Context, now time.Time) ([]models.DeletionRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM deletion_rules
		WHERE enabled = true AND next_run_at IS NOT NULL AND next_run_at <= ?
		ORDER BY next_run_at`

	rows, err := db.query(ctx, "deletion_rules", query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due rules: %w", err)
	}
	defer rows.Close()

	rules := make([]models.DeletionRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due rules: %w", err)
	}
	return rules, nil
}

// UpdateRule replaces the mutable fields of an existing rule.
func (db *DB) UpdateRule(ctx context.Context, rule *models.DeletionRule) error {
	rule.UpdatedAt = time.Now()

	query := `UPDATE deletion_rules SET
		name = ?, description = ?, enabled = ?, media_types = ?, conditions = ?,
		filters_enabled = ?, strategy = ?, schedule = ?, next_run_at = ?,
		updated_at = ?
	WHERE id = ?`

	result, err := db.exec(ctx, "deletion_rules", query,
		rule.Name, rule.Description, rule.Enabled,
		marshalColumn(rule.MediaTypes, "[]"),
		marshalColumn(rule.Conditions, "{}"),
		marshalColumn(rule.FiltersEnabled, "{}"),
		marshalColumn(rule.Strategy, "{}"),
		marshalColumn(rule.Schedule, "{}"),
		rule.NextRunAt, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRuleNameConflict
		}
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// UpdateRuleRunTimes records a completed scheduled run and arms the next.
func (db *DB) UpdateRuleRunTimes(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error {
	result, err := db.exec(ctx, "deletion_rules",
		`UPDATE deletion_rules SET last_run_at = ?, next_run_at = ?, updated_at = ? WHERE id = ?`,
		lastRun, nextRun, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule run times: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// DeleteRule removes a rule. History and snapshots keep the rule's name
// denormalized, so nothing else needs cleanup.
func (db *DB) DeleteRule(ctx context.Context, id string) error {
	result, err := db.exec(ctx, "deletion_rules", `DELETE FROM deletion_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// scanRule scans one rule row through the given scan function.
func scanRule(scan func(...any) error) (*models.DeletionRule, error) {
	var rule models.DeletionRule
	var description sql.NullString
	var mediaTypes, conditions, filtersEnabled, strategy, schedule any
	var nextRunAt, lastRunAt sql.NullTime

	err := scan(
		&rule.ID, &rule.Name, &description, &rule.Enabled, &mediaTypes, &conditions,
		&filtersEnabled, &strategy, &schedule, &nextRunAt, &lastRunAt,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	rule.Description = description.String
	if nextRunAt.Valid {
		t := nextRunAt.Time
		rule.NextRunAt = &t
	}
	if lastRunAt.Valid {
		t := lastRunAt.Time
		rule.LastRunAt = &t
	}
	if err := unmarshalColumn(mediaTypes, &rule.MediaTypes); err != nil {
		return nil, fmt.Errorf("failed to decode rule media types: %w", err)
	}
	if err := unmarshalColumn(conditions, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode rule conditions: %w", err)
	}
	if err := unmarshalColumn(filtersEnabled, &rule.FiltersEnabled); err != nil {
		return nil, fmt.Errorf("failed to decode rule filters: %w", err)
	}
	if err := unmarshalColumn(strategy, &rule.Strategy); err != nil {
		return nil, fmt.Errorf("failed to decode rule strategy: %w", err)
	}
	if err := unmarshalColumn(schedule, &rule.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode rule schedule: %w", err)
	}

	return &rule, nil
}
