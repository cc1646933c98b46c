// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/models"
	"github.com/helliott20/managarr-sub001/internal/validation"
)

// ListPending handles GET /api/v1/pending with optional status, rule_id and
// media_id filters.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := r.URL.Query().Get("status")
	if status != "" && !models.IsValidPendingStatus(status) {
		respondError(w, http.StatusBadRequest, codeValidation, "unknown status "+status, nil)
		return
	}

	limit, offset := h.pagination(r)
	filter := database.PendingFilter{
		Status:  status,
		RuleID:  r.URL.Query().Get("rule_id"),
		MediaID: r.URL.Query().Get("media_id"),
		Limit:   limit,
		Offset:  offset,
	}

	pending, err := h.store.ListPending(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	total, err := h.store.CountPending(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, models.PendingResponse{
		Pending:    pending,
		Pagination: models.ListMeta{Limit: limit, Offset: offset, Total: total},
	}, started)
}

// PendingSummary handles GET /api/v1/pending/summary: per-status counts and
// total reclaimable bytes.
func (h *Handler) PendingSummary(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	summary, err := h.store.SummarizePending(r.Context())
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, summary, started)
}

// GetPending handles GET /api/v1/pending/{id}.
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	pending, err := h.store.GetPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, pending, started)
}

// ApprovePending handles POST /api/v1/pending/{id}/approve. The body is
// optional; an empty body approves for immediate execution.
func (h *Handler) ApprovePending(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ApproveRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error(), nil)
			return
		}
	}

	pending, err := h.lifecycle.Approve(r.Context(), chi.URLParam(r, "id"), requestActor(r), req.ScheduledDate)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, pending, started)
}

// CancelPending handles POST /api/v1/pending/{id}/cancel.
func (h *Handler) CancelPending(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req CancelRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error(), nil)
			return
		}
		if verr := validation.ValidateStruct(&req); verr != nil {
			respondValidationError(w, verr)
			return
		}
	}

	pending, err := h.lifecycle.Cancel(r.Context(), chi.URLParam(r, "id"), requestActor(r), req.Reason)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, pending, started)
}

// BulkApprove handles POST /api/v1/pending/bulk/approve. Items succeed and
// fail independently; the response always reports per-item outcomes.
func (h *Handler) BulkApprove(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := h.decodeBulkRequest(w, r)
	if !ok {
		return
	}
	resp := h.lifecycle.BulkApprove(r.Context(), req.IDs, requestActor(r), req.ScheduledDate)
	respondSuccess(w, http.StatusOK, resp, started)
}

// BulkCancel handles POST /api/v1/pending/bulk/cancel.
func (h *Handler) BulkCancel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := h.decodeBulkRequest(w, r)
	if !ok {
		return
	}
	resp := h.lifecycle.BulkCancel(r.Context(), req.IDs, requestActor(r), req.Reason)
	respondSuccess(w, http.StatusOK, resp, started)
}

func (h *Handler) decodeBulkRequest(w http.ResponseWriter, r *http.Request) (*models.BulkRequest, bool) {
	var req models.BulkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error(), nil)
		return nil, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, verr)
		return nil, false
	}
	return &req, true
}
