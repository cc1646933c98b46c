// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// Store is the persistence surface the evaluator needs. *database.DB
// satisfies it; tests substitute a mock.
type Store interface {
	ListMedia(ctx context.Context, filter database.MediaFilter) ([]models.Media, error)
	CreatePending(ctx context.Context, p *models.PendingDeletion) error
}

// Evaluator runs deletion rules over the synced media library. Preview and
// Propose share one matching path so their numbers always agree; the only
// difference is whether matches are persisted as pending deletions.
type Evaluator struct {
	store Store
}

// NewEvaluator creates an evaluator backed by the given store.
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{store: store}
}

// Preview evaluates a rule without persisting anything and returns the
// matched media with summary stats.
func (e *Evaluator) Preview(ctx context.Context, rule *models.DeletionRule) (*models.PreviewResult, error) {
	start := time.Now()
	matched, stats, err := e.evaluate(ctx, rule)
	if err != nil {
		return nil, err
	}
	metrics.RecordEvaluation("preview", stats.Matched, time.Since(start))

	return &models.PreviewResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Stats:    stats,
		Media:    matched,
	}, nil
}

// Propose evaluates a rule and persists a pending deletion for every match,
// snapshotting the media and the rule as the evaluator saw them. Matches
// that already have a non-terminal pending deletion for the same
// (media, rule) pair are counted as skipped, not errors.
func (e *Evaluator) Propose(ctx context.Context, rule *models.DeletionRule, proposedBy string) (*models.ProposeResult, error) {
	start := time.Now()
	matched, stats, err := e.evaluate(ctx, rule)
	if err != nil {
		return nil, err
	}

	result := &models.ProposeResult{
		RuleID:   rule.ID,
		RuleName: rule.Name,
		Stats:    stats,
	}

	now := time.Now()
	for i := range matched {
		m := matched[i]
		ruleSnapshot := *rule
		pending := &models.PendingDeletion{
			MediaID:           m.ID,
			RuleID:            rule.ID,
			Status:            models.StatusPending,
			MediaSnapshot:     &m,
			RuleSnapshot:      &ruleSnapshot,
			SnapshotSizeBytes: m.SizeBytes,
			ProposedAt:        now,
			ProposedBy:        proposedBy,
		}
		if err := e.store.CreatePending(ctx, pending); err != nil {
			if errors.Is(err, database.ErrDuplicatePending) {
				result.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to persist proposal for media %s: %w", m.ID, err)
		}
		result.Proposed++
	}

	metrics.RecordEvaluation("propose", stats.Matched, time.Since(start))
	logging.Info().
		Str("rule_id", rule.ID).
		Str("rule_name", rule.Name).
		Int("matched", stats.Matched).
		Int("proposed", result.Proposed).
		Int("skipped", result.Skipped).
		Msg("Rule proposed deletions")

	return result, nil
}

// evaluate is the shared matching path. It walks every media item of the
// rule's target types and applies Matches.
func (e *Evaluator) evaluate(ctx context.Context, rule *models.DeletionRule) ([]models.Media, models.EvaluationStats, error) {
	stats := models.EvaluationStats{
		ByType:        make(map[string]int),
		ByWatchStatus: make(map[string]int),
		MatchedAll:    len(rule.EnabledGroups()) == 0,
	}

	if stats.MatchedAll {
		logging.Warn().
			Str("rule_id", rule.ID).
			Str("rule_name", rule.Name).
			Msg("Rule has no enabled condition groups and matches all unprotected media of its target types")
	}

	now := time.Now()
	var matched []models.Media
	for _, mediaType := range rule.MediaTypes {
		media, err := e.store.ListMedia(ctx, database.MediaFilter{Type: mediaType})
		if err != nil {
			return nil, stats, fmt.Errorf("failed to list %s media: %w", mediaType, err)
		}
		for i := range media {
			stats.Evaluated++
			m := &media[i]
			if !Matches(rule, m, now) {
				continue
			}
			matched = append(matched, *m)
			stats.Matched++
			stats.TotalSizeBytes += m.SizeBytes
			stats.ByType[m.Type]++
			stats.ByWatchStatus[m.WatchStatus()]++
		}
	}

	return matched, stats, nil
}
