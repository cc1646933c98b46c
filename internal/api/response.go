// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/executor"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/models"
	"github.com/helliott20/managarr-sub001/internal/validation"
)

// Error codes returned in the response envelope.
const (
	codeValidation   = "VALIDATION_ERROR"
	codeNotFound     = "NOT_FOUND"
	codeConflict     = "CONFLICT"
	codeDuplicate    = "DUPLICATE"
	codeBusy         = "EXECUTION_BUSY"
	codeDatabase     = "DATABASE_ERROR"
	codeBadRequest   = "BAD_REQUEST"
	codeInternal     = "INTERNAL_ERROR"
)

// respondSuccess writes the standard envelope with the given payload.
// started is used to report query time.
func respondSuccess(w http.ResponseWriter, status int, data any, started time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	}
	writeJSON(w, status, resp)
}

// respondError writes the standard error envelope.
func respondError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	writeJSON(w, status, resp)
}

// respondStoreError maps known domain errors to HTTP statuses. Unknown
// errors become a 500 with a generic message; the detail stays in the log.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrRuleNotFound),
		errors.Is(err, database.ErrPendingNotFound),
		errors.Is(err, database.ErrMediaNotFound),
		errors.Is(err, database.ErrHistoryNotFound):
		respondError(w, http.StatusNotFound, codeNotFound, err.Error(), nil)
	case errors.Is(err, database.ErrRuleNameConflict):
		respondError(w, http.StatusConflict, codeConflict, "a rule with that name already exists", nil)
	case errors.Is(err, database.ErrDuplicatePending):
		respondError(w, http.StatusConflict, codeDuplicate, "a non-terminal pending deletion already exists for that media and rule", nil)
	case errors.Is(err, database.ErrConflict):
		respondError(w, http.StatusConflict, codeConflict, "transition not allowed from current status", nil)
	case errors.Is(err, executor.ErrPassInProgress):
		respondError(w, http.StatusConflict, codeBusy, "an execution pass is already running", nil)
	default:
		logging.Error().Err(err).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, codeDatabase, "internal error", nil)
	}
}

// respondValidationError converts struct validation failures to a 400 with
// per-field details.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	details := make(map[string]any, len(verr.Errors()))
	for _, fe := range verr.Errors() {
		details[fe.Field()] = fe.Error()
	}
	respondError(w, http.StatusBadRequest, codeValidation, "request validation failed", details)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}
