// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"time"
)

// Trigger values recorded on history rows and execution summaries.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// HistoryItem is one processed pending deletion inside a history row.
// The rule name and media title are denormalized so history stays readable
// after the rule or media row is deleted; RuleID is a pointer for the same
// reason.
type HistoryItem struct {
	PendingID  string  `json:"pending_id"`
	MediaID    string  `json:"media_id"`
	MediaTitle string  `json:"media_title"`
	MediaType  string  `json:"media_type"`
	RuleID     *string `json:"rule_id,omitempty"`
	RuleName   string  `json:"rule_name"`
	Status     string  `json:"status"`
	BytesFreed int64   `json:"bytes_freed,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// DeletionHistory is the append-only record of one execution pass. Exactly
// one row is written per pass, including passes that found nothing to do.
// Rows are never updated or deleted by the application.
type DeletionHistory struct {
	ID         string        `json:"id"`
	Trigger    string        `json:"trigger"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	BytesFreed int64         `json:"bytes_freed"`
	Items      []HistoryItem `json:"items,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BatchSummary is the outcome of one execution pass, returned to callers of
// the engine and recorded on the scheduler's status. Busy means the pass
// did not run because another pass held the execution lock; all counters
// are zero in that case.
type BatchSummary struct {
	Total      int       `json:"total"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	BytesFreed int64     `json:"bytes_freed"`
	Busy       bool      `json:"busy,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}
