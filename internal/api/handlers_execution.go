// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package api

import (
	"net/http"
	"time"

	"github.com/helliott20/managarr-sub001/internal/models"
	"github.com/helliott20/managarr-sub001/internal/validation"
)

// Execute handles POST /api/v1/execute: run one pass now. A pass already in
// flight yields 409 with the EXECUTION_BUSY code.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	summary, err := h.engine.Execute(r.Context(), models.TriggerManual)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, summary, started)
}

// ExecuteStatus handles GET /api/v1/execute/status.
func (h *Handler) ExecuteStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondSuccess(w, http.StatusOK, map[string]bool{"running": h.engine.IsRunning()}, started)
}

// SchedulerStart handles POST /api/v1/scheduler/start. The optional body
// overrides the recurring interval; starting an armed scheduler keeps it
// armed and reports the current status.
func (h *Handler) SchedulerStart(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req SchedulerStartRequest
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

	if err := h.scheduler.Arm(time.Duration(req.IntervalMinutes) * time.Minute); err != nil {
		respondError(w, http.StatusConflict, codeConflict, err.Error(), nil)
		return
	}
	respondSuccess(w, http.StatusOK, h.scheduler.Status(), started)
}

// SchedulerStop handles POST /api/v1/scheduler/stop. Stopping a stopped
// scheduler is a no-op.
func (h *Handler) SchedulerStop(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if err := h.scheduler.Stop(); err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, h.scheduler.Status(), started)
}

// SchedulerStatus handles GET /api/v1/scheduler/status.
func (h *Handler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	respondSuccess(w, http.StatusOK, h.scheduler.Status(), started)
}
