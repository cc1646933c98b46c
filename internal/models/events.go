// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"time"
)

// Event topics published on the in-process bus. Collaborating components
// (notification senders, cache invalidation, future UI push) subscribe to
// these instead of being called synchronously from the execution path.
const (
	TopicDeletionCompleted = "deletion.completed"
	TopicDeletionFailed    = "deletion.failed"
	TopicPassCompleted     = "execution.pass.completed"
	TopicRuleExecuted      = "rule.executed"
)

// DeletionEvent is published once per processed item on TopicDeletionCompleted
// or TopicDeletionFailed.
type DeletionEvent struct {
	PendingID  string    `json:"pending_id"`
	MediaID    string    `json:"media_id"`
	MediaTitle string    `json:"media_title"`
	MediaType  string    `json:"media_type"`
	RuleID     string    `json:"rule_id"`
	RuleName   string    `json:"rule_name"`
	BytesFreed int64     `json:"bytes_freed,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PassCompletedEvent is published once per execution pass on
// TopicPassCompleted, busy passes excluded.
type PassCompletedEvent struct {
	HistoryID string       `json:"history_id"`
	Trigger   string       `json:"trigger"`
	Summary   BatchSummary `json:"summary"`
}

// RuleExecutedEvent is published on TopicRuleExecuted when a scheduled rule
// run proposes deletions.
type RuleExecutedEvent struct {
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	Proposed  int       `json:"proposed"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}
