// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package lifecycle drives pending deletions through their state machine:
// pending to approved or cancelled, approved to cancelled, with every
// transition recorded with its actor. Terminal rows are immutable.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// Store is the persistence surface the manager needs. *database.DB
// satisfies it.
type Store interface {
	GetPending(ctx context.Context, id string) (*models.PendingDeletion, error)
	ApprovePending(ctx context.Context, id, actor string, scheduledDate *time.Time) error
	CancelPending(ctx context.Context, id, actor, reason string) error
}

// Manager coordinates manual lifecycle transitions. The database enforces
// transition legality atomically; the manager adds logging, metrics and the
// bulk semantics.
type Manager struct {
	store Store
}

// NewManager creates a lifecycle manager backed by the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Approve moves one pending deletion from pending to approved, optionally
// deferring execution until scheduledDate. Returns the updated row.
func (m *Manager) Approve(ctx context.Context, id, actor string, scheduledDate *time.Time) (*models.PendingDeletion, error) {
	err := m.store.ApprovePending(ctx, id, actor, scheduledDate)
	m.recordTransition(models.StatusApproved, err)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("pending_id", id).
		Str("actor", actor).
		Msg("Pending deletion approved")
	return m.store.GetPending(ctx, id)
}

// Cancel moves one pending deletion from pending or approved to cancelled.
// Returns the updated row.
func (m *Manager) Cancel(ctx context.Context, id, actor, reason string) (*models.PendingDeletion, error) {
	err := m.store.CancelPending(ctx, id, actor, reason)
	m.recordTransition(models.StatusCancelled, err)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("pending_id", id).
		Str("actor", actor).
		Str("reason", reason).
		Msg("Pending deletion cancelled")
	return m.store.GetPending(ctx, id)
}

// BulkApprove approves each ID independently: one invalid or missing item
// never blocks the rest. The outcome slice preserves request order.
func (m *Manager) BulkApprove(ctx context.Context, ids []string, actor string, scheduledDate *time.Time) *models.BulkResponse {
	return m.bulk(ids, func(id string) error {
		err := m.store.ApprovePending(ctx, id, actor, scheduledDate)
		m.recordTransition(models.StatusApproved, err)
		return err
	}, models.StatusApproved)
}

// BulkCancel cancels each ID independently.
func (m *Manager) BulkCancel(ctx context.Context, ids []string, actor, reason string) *models.BulkResponse {
	return m.bulk(ids, func(id string) error {
		err := m.store.CancelPending(ctx, id, actor, reason)
		m.recordTransition(models.StatusCancelled, err)
		return err
	}, models.StatusCancelled)
}

func (m *Manager) bulk(ids []string, apply func(id string) error, toStatus string) *models.BulkResponse {
	resp := &models.BulkResponse{
		Outcomes: make([]models.BulkItemOutcome, 0, len(ids)),
	}
	for _, id := range ids {
		outcome := models.BulkItemOutcome{ID: id}
		if err := apply(id); err != nil {
			outcome.Error = transitionErrorMessage(err)
			resp.Failed++
		} else {
			outcome.Success = true
			outcome.Status = toStatus
			resp.Succeeded++
		}
		resp.Outcomes = append(resp.Outcomes, outcome)
	}
	return resp
}

func (m *Manager) recordTransition(toStatus string, err error) {
	switch {
	case err == nil:
		metrics.RecordTransition(toStatus, "ok")
	case errors.Is(err, database.ErrConflict):
		metrics.RecordTransition(toStatus, "conflict")
	case errors.Is(err, database.ErrPendingNotFound):
		metrics.RecordTransition(toStatus, "not_found")
	default:
		metrics.RecordTransition(toStatus, "error")
	}
}

func transitionErrorMessage(err error) string {
	switch {
	case errors.Is(err, database.ErrPendingNotFound):
		return "pending deletion not found"
	case errors.Is(err, database.ErrConflict):
		return "transition not allowed from current status"
	default:
		return err.Error()
	}
}
