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
	"github.com/helliott20/managarr-sub001/internal/rules"
	"github.com/helliott20/managarr-sub001/internal/validation"
)

// ListRules handles GET /api/v1/rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	limit, offset := h.pagination(r)
	filter := database.RuleFilter{
		EnabledOnly: r.URL.Query().Get("enabled") == "true",
		Limit:       limit,
		Offset:      offset,
	}

	ruleList, err := h.store.ListRules(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	total, err := h.store.CountRules(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondSuccess(w, http.StatusOK, models.RulesResponse{
		Rules:      ruleList,
		Pagination: models.ListMeta{Limit: limit, Offset: offset, Total: total},
	}, started)
}

// CreateRule handles POST /api/v1/rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}

	rule := req.ToModel()
	if err := h.armSchedule(rule); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if err := h.store.CreateRule(r.Context(), rule); err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusCreated, rule, started)
}

// GetRule handles GET /api/v1/rules/{id}.
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rule, err := h.store.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, rule, started)
}

// UpdateRule handles PUT /api/v1/rules/{id}.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req, ok := h.decodeRuleRequest(w, r)
	if !ok {
		return
	}

	rule := req.ToModel()
	rule.ID = chi.URLParam(r, "id")
	if err := h.armSchedule(rule); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}
	if err := h.store.UpdateRule(r.Context(), rule); err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, rule, started)
}

// DeleteRule handles DELETE /api/v1/rules/{id}. Deleting a rule leaves its
// pending deletions and history untouched; they carry their own snapshots.
func (h *Handler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	if err := h.store.DeleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]string{"deleted": chi.URLParam(r, "id")}, started)
}

// PreviewRule handles POST /api/v1/rules/{id}/preview. Nothing is
// persisted.
func (h *Handler) PreviewRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rule, err := h.store.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	result, err := h.evaluator.Preview(r.Context(), rule)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, started)
}

// ProposeRule handles POST /api/v1/rules/{id}/propose: evaluate now and
// persist pending deletions for the matches.
func (h *Handler) ProposeRule(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rule, err := h.store.GetRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	result, err := h.evaluator.Propose(r.Context(), rule, requestActor(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, result, started)
}

func (h *Handler) decodeRuleRequest(w http.ResponseWriter, r *http.Request) (*RuleRequest, bool) {
	var req RuleRequest
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

// armSchedule computes the rule's first run time from its schedule. Invalid
// schedules are rejected before the rule is stored.
func (h *Handler) armSchedule(rule *models.DeletionRule) error {
	next, err := rules.NextRun(rule.Schedule, time.Now().UTC())
	if err != nil {
		return err
	}
	rule.NextRunAt = next
	return nil
}
