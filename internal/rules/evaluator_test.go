// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/models"
)

type mockStore struct {
	media       map[string][]models.Media
	listErr     error
	created     []*models.PendingDeletion
	createErrs  map[string]error
}

func (s *mockStore) ListMedia(_ context.Context, filter database.MediaFilter) ([]models.Media, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.media[filter.Type], nil
}

func (s *mockStore) CreatePending(_ context.Context, p *models.PendingDeletion) error {
	if err, ok := s.createErrs[p.MediaID]; ok {
		return err
	}
	s.created = append(s.created, p)
	return nil
}

func libraryStore() *mockStore {
	old := testNow.AddDate(0, 0, -200)
	recent := testNow.AddDate(0, 0, -10)
	return &mockStore{
		media: map[string][]models.Media{
			models.MediaTypeMovie: {
				{ID: "old-movie", Type: models.MediaTypeMovie, Title: "Old Movie", SizeBytes: 4 << 30, AddedAt: old},
				{ID: "new-movie", Type: models.MediaTypeMovie, Title: "New Movie", SizeBytes: 2 << 30, AddedAt: recent},
				{ID: "protected-movie", Type: models.MediaTypeMovie, Title: "Keeper", SizeBytes: 8 << 30, AddedAt: old, Protected: true},
			},
			models.MediaTypeSeries: {
				{ID: "old-series", Type: models.MediaTypeSeries, Title: "Old Series", SizeBytes: 20 << 30, AddedAt: old},
			},
		},
	}
}

func ageRule(minDays int, types ...string) *models.DeletionRule {
	return &models.DeletionRule{
		ID:             "rule-1",
		Name:           "stale media",
		MediaTypes:     types,
		Conditions:     models.RuleConditions{MinAgeDays: intPtr(minDays)},
		FiltersEnabled: map[string]bool{models.GroupAge: true},
	}
}

func TestPreview(t *testing.T) {
	store := libraryStore()
	ev := NewEvaluator(store)

	result, err := ev.Preview(context.Background(), ageRule(100, models.MediaTypeMovie))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	if result.Stats.Evaluated != 3 {
		t.Errorf("Evaluated = %d, want 3", result.Stats.Evaluated)
	}
	if result.Stats.Matched != 1 {
		t.Errorf("Matched = %d, want 1", result.Stats.Matched)
	}
	if len(result.Media) != 1 || result.Media[0].ID != "old-movie" {
		t.Errorf("matched media = %+v, want only old-movie", result.Media)
	}
	if result.Stats.TotalSizeBytes != 4<<30 {
		t.Errorf("TotalSizeBytes = %d, want %d", result.Stats.TotalSizeBytes, int64(4<<30))
	}
	if result.Stats.MatchedAll {
		t.Error("MatchedAll should be false when a group is enabled")
	}
	if len(store.created) != 0 {
		t.Errorf("Preview persisted %d pending deletions, want 0", len(store.created))
	}
}

func TestPreviewSpansTargetTypes(t *testing.T) {
	ev := NewEvaluator(libraryStore())

	result, err := ev.Preview(context.Background(), ageRule(100, models.MediaTypeMovie, models.MediaTypeSeries))
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if result.Stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", result.Stats.Matched)
	}
	if result.Stats.ByType[models.MediaTypeMovie] != 1 || result.Stats.ByType[models.MediaTypeSeries] != 1 {
		t.Errorf("ByType = %v, want one movie and one series", result.Stats.ByType)
	}
}

func TestPreviewMatchAllFlag(t *testing.T) {
	ev := NewEvaluator(libraryStore())

	rule := &models.DeletionRule{
		ID:         "rule-all",
		Name:       "everything",
		MediaTypes: []string{models.MediaTypeMovie},
	}
	result, err := ev.Preview(context.Background(), rule)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if !result.Stats.MatchedAll {
		t.Error("MatchedAll should be set for a rule with no enabled groups")
	}
	// Protected media is still excluded.
	if result.Stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", result.Stats.Matched)
	}
}

func TestPreviewListError(t *testing.T) {
	store := libraryStore()
	store.listErr = errors.New("connection lost")
	ev := NewEvaluator(store)

	if _, err := ev.Preview(context.Background(), ageRule(100, models.MediaTypeMovie)); err == nil {
		t.Fatal("Preview() should propagate store errors")
	}
}

func TestProposePersistsSnapshots(t *testing.T) {
	store := libraryStore()
	ev := NewEvaluator(store)
	rule := ageRule(100, models.MediaTypeMovie)

	result, err := ev.Propose(context.Background(), rule, "admin")
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if result.Proposed != 1 || result.Skipped != 0 {
		t.Fatalf("Proposed = %d, Skipped = %d, want 1 and 0", result.Proposed, result.Skipped)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d pending deletions, want 1", len(store.created))
	}

	p := store.created[0]
	if p.MediaID != "old-movie" || p.RuleID != rule.ID {
		t.Errorf("pending keyed (%s, %s), want (old-movie, %s)", p.MediaID, p.RuleID, rule.ID)
	}
	if p.Status != models.StatusPending {
		t.Errorf("status = %s, want %s", p.Status, models.StatusPending)
	}
	if p.MediaSnapshot == nil || p.MediaSnapshot.ID != "old-movie" {
		t.Error("media snapshot missing or wrong")
	}
	if p.RuleSnapshot == nil || p.RuleSnapshot.ID != rule.ID {
		t.Error("rule snapshot missing or wrong")
	}
	if p.SnapshotSizeBytes != 4<<30 {
		t.Errorf("SnapshotSizeBytes = %d, want %d", p.SnapshotSizeBytes, int64(4<<30))
	}
	if p.ProposedBy != "admin" {
		t.Errorf("ProposedBy = %q, want admin", p.ProposedBy)
	}
}

func TestProposeSkipsDuplicates(t *testing.T) {
	store := libraryStore()
	store.createErrs = map[string]error{"old-movie": database.ErrDuplicatePending}
	ev := NewEvaluator(store)

	result, err := ev.Propose(context.Background(), ageRule(100, models.MediaTypeMovie, models.MediaTypeSeries), "scheduler")
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if result.Proposed != 1 {
		t.Errorf("Proposed = %d, want 1", result.Proposed)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	// Stats still report the full match set.
	if result.Stats.Matched != 2 {
		t.Errorf("Matched = %d, want 2", result.Stats.Matched)
	}
}

func TestProposeOtherCreateErrorsFail(t *testing.T) {
	store := libraryStore()
	store.createErrs = map[string]error{"old-movie": errors.New("disk full")}
	ev := NewEvaluator(store)

	if _, err := ev.Propose(context.Background(), ageRule(100, models.MediaTypeMovie), "admin"); err == nil {
		t.Fatal("Propose() should fail on non-duplicate store errors")
	}
}
