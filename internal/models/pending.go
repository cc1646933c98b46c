// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"time"
)

// Pending deletion statuses. Legal transitions:
//
//	pending  -> approved | cancelled
//	approved -> cancelled | completed | failed
//	failed   -> completed | failed        (execution retry)
//
// completed and cancelled are terminal. failed is retry-eligible: the
// execution engine may pick a failed item up again, so it still blocks a
// new proposal for the same (media, rule) pair.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PendingStatuses lists every status value, for validation and listing
// filters.
var PendingStatuses = []string{
	StatusPending, StatusApproved, StatusCancelled, StatusCompleted, StatusFailed,
}

// NonTerminalStatuses are the statuses that block a duplicate proposal for
// the same (media, rule) pair.
var NonTerminalStatuses = []string{StatusPending, StatusApproved, StatusFailed}

// IsValidPendingStatus reports whether s is a known status value.
func IsValidPendingStatus(s string) bool {
	for _, v := range PendingStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ExecutionResult records one execution attempt against a downloader
// integration. Appended to the pending deletion's result list on every
// attempt, success or failure, so retries leave a full trail.
type ExecutionResult struct {
	Timestamp   time.Time `json:"timestamp"`
	Integration string    `json:"integration"`
	Success     bool      `json:"success"`
	BytesFreed  int64     `json:"bytes_freed,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}

// PendingDeletion is one proposed deletion of one media item by one rule.
// The media and rule are snapshotted at proposal time so approval screens
// and execution see exactly what the evaluator saw, even if the live rule
// or media row changes or disappears afterwards.
//
// Each lifecycle transition records who made it, when, and (for
// cancellation) why. An item that is approved and later cancelled keeps
// both the approval and the cancellation records.
type PendingDeletion struct {
	ID                string            `json:"id"`
	MediaID           string            `json:"media_id"`
	RuleID            string            `json:"rule_id"`
	Status            string            `json:"status"`
	MediaSnapshot     *Media            `json:"media_snapshot,omitempty"`
	RuleSnapshot      *DeletionRule     `json:"rule_snapshot,omitempty"`
	SnapshotSizeBytes int64             `json:"snapshot_size_bytes"`
	ScheduledDate     *time.Time        `json:"scheduled_date,omitempty"`
	ProposedAt        time.Time         `json:"proposed_at"`
	ProposedBy        string            `json:"proposed_by"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	ApprovedBy        *string           `json:"approved_by,omitempty"`
	CancelledAt       *time.Time        `json:"cancelled_at,omitempty"`
	CancelledBy       *string           `json:"cancelled_by,omitempty"`
	CancelReason      *string           `json:"cancel_reason,omitempty"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
	FailedAt          *time.Time        `json:"failed_at,omitempty"`
	LastError         *string           `json:"last_error,omitempty"`
	RetryCount        int               `json:"retry_count"`
	ExecutionResults  []ExecutionResult `json:"execution_results,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the item can no longer change state.
func (p *PendingDeletion) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusCancelled
}

// DueForExecution reports whether the item is eligible for an execution
// pass at the given instant. Approved items run when their scheduled date
// is unset or has arrived. Failed items run under the same date check when
// the engine has retries enabled.
func (p *PendingDeletion) DueForExecution(now time.Time, retryFailed bool) bool {
	switch p.Status {
	case StatusApproved:
	case StatusFailed:
		if !retryFailed {
			return false
		}
	default:
		return false
	}
	return p.ScheduledDate == nil || !p.ScheduledDate.After(now)
}

// PendingSummary aggregates pending deletions per status for dashboards.
type PendingSummary struct {
	Status         string `json:"status"`
	Count          int    `json:"count"`
	TotalSizeBytes int64  `json:"total_size_bytes"`
}

// BulkItemOutcome is the per-item result of a bulk approve or cancel.
// Bulk operations attempt every item independently; one item's failure
// never aborts the rest.
type BulkItemOutcome struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}
