// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package models

// EvaluationStats summarizes one rule evaluation over the media library.
// Preview and propose share the same matching path, so these numbers agree
// between a dry run and the proposals it would create.
//
// MatchedAll is set when the rule had zero enabled condition groups and
// therefore matched every unprotected item of its target types. Clients
// surface this so operators can confirm a match-everything rule is
// intentional.
type EvaluationStats struct {
	Evaluated      int            `json:"evaluated"`
	Matched        int            `json:"matched"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	ByType         map[string]int `json:"by_type"`
	ByWatchStatus  map[string]int `json:"by_watch_status"`
	MatchedAll     bool           `json:"matched_all,omitempty"`
}

// PreviewResult is the ephemeral outcome of evaluating a rule without
// persisting anything.
type PreviewResult struct {
	RuleID   string          `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Stats    EvaluationStats `json:"stats"`
	Media    []Media         `json:"media"`
}

// ProposeResult is the outcome of evaluating a rule and persisting pending
// deletions for its matches. Skipped counts matches that already had a
// non-terminal pending deletion for the same (media, rule) pair.
type ProposeResult struct {
	RuleID   string          `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	Proposed int             `json:"proposed"`
	Skipped  int             `json:"skipped"`
	Stats    EvaluationStats `json:"stats"`
}
