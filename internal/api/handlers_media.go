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

// ListMedia handles GET /api/v1/media with optional type and protected
// filters.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	mediaType := r.URL.Query().Get("type")
	if mediaType != "" && mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeSeries {
		respondError(w, http.StatusBadRequest, codeValidation, "unknown media type "+mediaType, nil)
		return
	}

	limit, offset := h.pagination(r)
	filter := database.MediaFilter{
		Type:   mediaType,
		Limit:  limit,
		Offset: offset,
	}
	if raw := r.URL.Query().Get("protected"); raw == "true" || raw == "false" {
		protected := raw == "true"
		filter.Protected = &protected
	}

	media, err := h.store.ListMedia(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	total, err := h.store.CountMedia(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, models.MediaResponse{
		Media:      media,
		Pagination: models.ListMeta{Limit: limit, Offset: offset, Total: total},
	}, started)
}

// ProtectMedia handles POST /api/v1/media/{id}/protect. Protected media is
// never matched by any rule.
func (h *Handler) ProtectMedia(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ProtectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "invalid JSON body: "+err.Error(), nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.SetMediaProtected(r.Context(), id, req.Protected); err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"id": id, "protected": req.Protected}, started)
}
