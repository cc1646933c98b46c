// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package database

import (
	"errors"
	"strings"

	json "github.com/goccy/go-json"
)

// Sentinel errors returned by store methods. Callers distinguish them with
// errors.Is to pick the right API status code.
var (
	ErrMediaNotFound   = errors.New("media not found")
	ErrRuleNotFound    = errors.New("deletion rule not found")
	ErrPendingNotFound = errors.New("pending deletion not found")
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrRuleNameConflict means another rule already uses the name.
	ErrRuleNameConflict = errors.New("rule with this name already exists")

	// ErrDuplicatePending means a non-terminal pending deletion already
	// exists for the same (media, rule) pair.
	ErrDuplicatePending = errors.New("pending deletion already exists for this media and rule")

	// ErrConflict means a check-and-set transition found the row in a
	// status other than the expected one.
	ErrConflict = errors.New("pending deletion is not in the expected status")
)

// isUniqueConstraintError checks whether err is a unique constraint
// violation. DuckDB reports these with "UNIQUE constraint" or
// "Duplicate key" in the message.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// jsonToString normalizes a JSON-shaped column value to a string. DuckDB
// may hand JSON back as a string, bytes, or decoded map depending on the
// column type.
func jsonToString(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		bytes, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(bytes)
	}
}

// marshalColumn serializes v for storage in a VARCHAR JSON column.
// fallback is used when marshaling fails or v is nil.
func marshalColumn(v any, fallback string) string {
	if v == nil {
		return fallback
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(bytes)
}

// unmarshalColumn deserializes a VARCHAR JSON column into out. Empty values
// leave out untouched.
func unmarshalColumn(raw any, out any) error {
	s := jsonToString(raw)
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}
