// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/helliott20/managarr-sub001/internal/models"
)

// RuleRequest is the create/update payload for a deletion rule.
type RuleRequest struct {
	Name           string                  `json:"name" validate:"required,min=1,max=200"`
	Description    string                  `json:"description" validate:"max=2000"`
	Enabled        bool                    `json:"enabled"`
	MediaTypes     []string                `json:"media_types" validate:"required,min=1,dive,oneof=movie series"`
	Conditions     models.RuleConditions   `json:"conditions"`
	FiltersEnabled map[string]bool         `json:"filters_enabled"`
	Strategy       models.DeletionStrategy `json:"deletion_strategy"`
	Schedule       models.RuleSchedule     `json:"schedule"`
}

// ToModel converts the request into a rule, leaving ID and timestamps for
// the store to fill.
func (r *RuleRequest) ToModel() *models.DeletionRule {
	return &models.DeletionRule{
		Name:           r.Name,
		Description:    r.Description,
		Enabled:        r.Enabled,
		MediaTypes:     r.MediaTypes,
		Conditions:     r.Conditions,
		FiltersEnabled: r.FiltersEnabled,
		Strategy:       r.Strategy,
		Schedule:       r.Schedule,
	}
}

// ApproveRequest optionally defers execution of an approved deletion.
type ApproveRequest struct {
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
}

// CancelRequest carries the free-form reason recorded on cancellation.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// SchedulerStartRequest optionally overrides the recurring interval when
// arming the scheduler. Zero keeps the configured interval; values below the
// five-minute floor are clamped.
type SchedulerStartRequest struct {
	IntervalMinutes int `json:"interval_minutes" validate:"min=0,max=10080"`
}

// ProtectRequest toggles the protection flag on a media item.
type ProtectRequest struct {
	Protected bool `json:"protected"`
}

// actorHeader is where callers identify themselves for the audit trail.
const actorHeader = "X-Actor"

// requestActor extracts the acting identity, defaulting to "api".
func requestActor(r *http.Request) string {
	if actor := r.Header.Get(actorHeader); actor != "" {
		return actor
	}
	return "api"
}

// pagination parses limit/offset query parameters, applying the configured
// default and cap.
func (h *Handler) pagination(r *http.Request) (limit, offset int) {
	limit = h.cfg.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > h.cfg.MaxPageSize {
		limit = h.cfg.MaxPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
