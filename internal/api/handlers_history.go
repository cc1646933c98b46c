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
)

// ListHistory handles GET /api/v1/history with an optional trigger filter.
func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	trigger := r.URL.Query().Get("trigger")
	if trigger != "" && trigger != models.TriggerManual && trigger != models.TriggerScheduled {
		respondError(w, http.StatusBadRequest, codeValidation, "unknown trigger "+trigger, nil)
		return
	}

	limit, offset := h.pagination(r)
	filter := database.HistoryFilter{
		Trigger: trigger,
		Limit:   limit,
		Offset:  offset,
	}

	history, err := h.store.ListHistory(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	total, err := h.store.CountHistory(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, models.HistoryResponse{
		History:    history,
		Pagination: models.ListMeta{Limit: limit, Offset: offset, Total: total},
	}, started)
}

// GetHistory handles GET /api/v1/history/{id}.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	entry, err := h.store.GetHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, entry, started)
}
