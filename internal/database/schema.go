// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the tables and indexes. Every statement is
// idempotent so startup can run them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS media (
		id VARCHAR PRIMARY KEY,
		external_id BIGINT NOT NULL,
		type VARCHAR NOT NULL,
		title VARCHAR NOT NULL,
		path VARCHAR,
		size_bytes BIGINT NOT NULL DEFAULT 0,
		resolution VARCHAR,
		quality_profile VARCHAR,
		rating DOUBLE,
		series_status VARCHAR,
		network VARCHAR,
		monitored BOOLEAN NOT NULL DEFAULT false,
		downloaded BOOLEAN NOT NULL DEFAULT false,
		protected BOOLEAN NOT NULL DEFAULT false,
		tags VARCHAR NOT NULL DEFAULT '[]',
		watch_count INTEGER NOT NULL DEFAULT 0,
		last_watched_at TIMESTAMP,
		added_at TIMESTAMP,
		metadata VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (type, external_id)
	)`,

	`CREATE TABLE IF NOT EXISTS deletion_rules (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL UNIQUE,
		description VARCHAR,
		enabled BOOLEAN NOT NULL DEFAULT true,
		media_types VARCHAR NOT NULL,
		conditions VARCHAR NOT NULL DEFAULT '{}',
		filters_enabled VARCHAR NOT NULL DEFAULT '{}',
		strategy VARCHAR NOT NULL DEFAULT '{}',
		schedule VARCHAR NOT NULL DEFAULT '{}',
		next_run_at TIMESTAMP,
		last_run_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS pending_deletions (
		id VARCHAR PRIMARY KEY,
		media_id VARCHAR NOT NULL,
		rule_id VARCHAR NOT NULL,
		status VARCHAR NOT NULL,
		media_snapshot VARCHAR,
		rule_snapshot VARCHAR,
		snapshot_size_bytes BIGINT NOT NULL DEFAULT 0,
		scheduled_date TIMESTAMP,
		proposed_at TIMESTAMP NOT NULL,
		proposed_by VARCHAR NOT NULL,
		approved_at TIMESTAMP,
		approved_by VARCHAR,
		cancelled_at TIMESTAMP,
		cancelled_by VARCHAR,
		cancel_reason VARCHAR,
		completed_at TIMESTAMP,
		failed_at TIMESTAMP,
		last_error VARCHAR,
		retry_count INTEGER NOT NULL DEFAULT 0,
		execution_results VARCHAR NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS deletion_history (
		id VARCHAR PRIMARY KEY,
		trigger_type VARCHAR NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		bytes_freed BIGINT NOT NULL DEFAULT 0,
		items VARCHAR NOT NULL DEFAULT '[]',
		created_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_media_type ON media (type)`,
	`CREATE INDEX IF NOT EXISTS idx_pending_status ON pending_deletions (status)`,
	`CREATE INDEX IF NOT EXISTS idx_pending_media_rule ON pending_deletions (media_id, rule_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_started ON deletion_history (started_at)`,
}

// createSchema runs every schema statement.
func (db *DB) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
