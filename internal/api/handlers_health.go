// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package api

import (
	"net/http"
	"time"
)

// Health handles GET /api/v1/health. Reports degraded with 503 when the
// database is unreachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := map[string]any{
		"status":            "ok",
		"scheduler":         h.scheduler.Status(),
		"execution_running": h.engine.IsRunning(),
	}
	if err := h.store.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = err.Error()
		respondSuccess(w, http.StatusServiceUnavailable, status, started)
		return
	}
	respondSuccess(w, http.StatusOK, status, started)
}
