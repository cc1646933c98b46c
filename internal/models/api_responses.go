// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

import (
	"time"
)

// APIResponse is the standardized wrapper used by all HTTP endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error is populated only on failure. Metadata is always present.
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"total": 12, "items": [...]},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z", "query_time_ms": 4}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error payload.
//
// Common codes: VALIDATION_ERROR, NOT_FOUND, CONFLICT, DUPLICATE,
// EXECUTION_BUSY, DATABASE_ERROR, INTEGRATION_ERROR, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListMeta carries limit/offset pagination for list endpoints. Total is the
// full count matching the filter, independent of the page window.
type ListMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// RulesResponse wraps a rule listing.
type RulesResponse struct {
	Rules      []DeletionRule `json:"rules"`
	Pagination ListMeta       `json:"pagination"`
}

// PendingResponse wraps a pending-deletion listing.
type PendingResponse struct {
	Pending    []PendingDeletion `json:"pending"`
	Pagination ListMeta          `json:"pagination"`
}

// MediaResponse wraps a media listing.
type MediaResponse struct {
	Media      []Media  `json:"media"`
	Pagination ListMeta `json:"pagination"`
}

// HistoryResponse wraps a deletion-history listing.
type HistoryResponse struct {
	History    []DeletionHistory `json:"history"`
	Pagination ListMeta          `json:"pagination"`
}

// BulkRequest names the pending deletions targeted by a bulk approve or
// cancel. Reason is recorded on cancellations; ScheduledDate defers
// execution of approved items.
type BulkRequest struct {
	IDs           []string   `json:"ids" validate:"required,min=1,max=500,dive,uuid4"`
	Reason        string     `json:"reason,omitempty" validate:"max=1000"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}

// BulkResponse reports per-item outcomes of a bulk operation.
type BulkResponse struct {
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Outcomes  []BulkItemOutcome `json:"outcomes"`
}

// SchedulerStatus reports the recurring scheduler's state.
//
//   - Armed: the timer loop is live (armed and not yet stopped)
//   - Running: an execution pass is in flight right now
//   - LastRun/LastResult: most recent completed pass, if any
type SchedulerStatus struct {
	Armed      bool          `json:"armed"`
	Running    bool          `json:"running"`
	Interval   string        `json:"interval"`
	LastRun    *time.Time    `json:"last_run,omitempty"`
	LastResult *BatchSummary `json:"last_result,omitempty"`
}
