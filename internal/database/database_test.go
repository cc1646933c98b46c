// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// newTestDB opens a real DuckDB database in a temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   2,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func testMedia(title string, externalID int64) *models.Media {
	rating := 6.5
	return &models.Media{
		ExternalID: externalID,
		Type:       models.MediaTypeMovie,
		Title:      title,
		SizeBytes:  4 << 30,
		Resolution: "1080p",
		Rating:     &rating,
		Monitored:  true,
		Downloaded: true,
		Tags:       []string{"kids"},
		AddedAt:    time.Now().AddDate(0, 0, -90),
	}
}

func testRule(name string) *models.DeletionRule {
	minAge := 60
	return &models.DeletionRule{
		Name:       name,
		Enabled:    true,
		MediaTypes: []string{models.MediaTypeMovie},
		Conditions: models.RuleConditions{MinAgeDays: &minAge},
		FiltersEnabled: map[string]bool{
			models.GroupAge: true,
		},
		Strategy: models.DeletionStrategy{
			Radarr: models.IntegrationStrategy{Action: models.ActionRemove, DeleteFiles: true},
		},
		Schedule: models.RuleSchedule{Type: models.ScheduleManual},
	}
}

func createTestPending(t *testing.T, db *DB, mediaID, ruleID string) *models.PendingDeletion {
	t.Helper()
	p := &models.PendingDeletion{
		MediaID:           mediaID,
		RuleID:            ruleID,
		ProposedBy:        "system",
		SnapshotSizeBytes: 4 << 30,
		MediaSnapshot:     &models.Media{ID: mediaID, Title: "Snapshot", SizeBytes: 4 << 30},
		RuleSnapshot:      &models.DeletionRule{ID: ruleID, Name: "Snapshot rule"},
	}
	if err := db.CreatePending(context.Background(), p); err != nil {
		t.Fatalf("CreatePending() error = %v", err)
	}
	return p
}

func TestUpsertMediaInsertThenUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := testMedia("Inception", 42)
	if err := db.UpsertMedia(ctx, m); err != nil {
		t.Fatalf("UpsertMedia() insert error = %v", err)
	}
	if m.ID == "" {
		t.Fatal("UpsertMedia should assign an ID")
	}
	firstID := m.ID

	// Same integration identity, refreshed data.
	refreshed := testMedia("Inception", 42)
	refreshed.SizeBytes = 8 << 30
	refreshed.WatchCount = 3
	if err := db.UpsertMedia(ctx, refreshed); err != nil {
		t.Fatalf("UpsertMedia() update error = %v", err)
	}
	if refreshed.ID != firstID {
		t.Errorf("upsert created a new row: %s != %s", refreshed.ID, firstID)
	}

	got, err := db.GetMedia(ctx, firstID)
	if err != nil {
		t.Fatalf("GetMedia() error = %v", err)
	}
	if got.SizeBytes != 8<<30 || got.WatchCount != 3 {
		t.Errorf("updated fields not persisted: %+v", got)
	}
	if got.Rating == nil || *got.Rating != 6.5 {
		t.Errorf("rating = %v, want 6.5", got.Rating)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "kids" {
		t.Errorf("tags = %v, want [kids]", got.Tags)
	}

	count, err := db.CountMedia(ctx, MediaFilter{})
	if err != nil {
		t.Fatalf("CountMedia() error = %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestGetMediaNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetMedia(context.Background(), "missing")
	if !errors.Is(err, ErrMediaNotFound) {
		t.Errorf("GetMedia() error = %v, want ErrMediaNotFound", err)
	}
}

func TestRuleCRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rule := testRule("Old unwatched movies")
	if err := db.CreateRule(ctx, rule); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	// Unique name.
	dup := testRule("Old unwatched movies")
	if err := db.CreateRule(ctx, dup); !errors.Is(err, ErrRuleNameConflict) {
		t.Errorf("CreateRule(duplicate name) error = %v, want ErrRuleNameConflict", err)
	}

	got, err := db.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetRule() error = %v", err)
	}
	if got.Conditions.MinAgeDays == nil || *got.Conditions.MinAgeDays != 60 {
		t.Errorf("conditions round trip failed: %+v", got.Conditions)
	}
	if !got.GroupEnabled(models.GroupAge) {
		t.Errorf("filters_enabled round trip failed: %v", got.FiltersEnabled)
	}
	if got.Strategy.Radarr.Action != models.ActionRemove {
		t.Errorf("strategy round trip failed: %+v", got.Strategy)
	}

	got.Description = "updated"
	got.Enabled = false
	if err := db.UpdateRule(ctx, got); err != nil {
		t.Fatalf("UpdateRule() error = %v", err)
	}

	rules, err := db.ListRules(ctx, RuleFilter{EnabledOnly: true})
	if err != nil {
		t.Fatalf("ListRules() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("enabled-only list = %d rules, want 0", len(rules))
	}

	if err := db.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteRule() error = %v", err)
	}
	if err := db.DeleteRule(ctx, rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("DeleteRule(gone) error = %v, want ErrRuleNotFound", err)
	}
}

func TestListDueRules(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	due := testRule("due rule")
	past := now.Add(-time.Hour)
	due.NextRunAt = &past
	if err := db.CreateRule(ctx, due); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	notYet := testRule("future rule")
	future := now.Add(time.Hour)
	notYet.NextRunAt = &future
	if err := db.CreateRule(ctx, notYet); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	manual := testRule("manual rule")
	if err := db.CreateRule(ctx, manual); err != nil {
		t.Fatalf("CreateRule() error = %v", err)
	}

	rules, err := db.ListDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ListDueRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].ID != due.ID {
		t.Errorf("due rules = %v, want only %s", rules, due.ID)
	}

	next := now.Add(24 * time.Hour)
	if err := db.UpdateRuleRunTimes(ctx, due.ID, now, &next); err != nil {
		t.Fatalf("UpdateRuleRunTimes() error = %v", err)
	}
	rules, err = db.ListDueRules(ctx, now)
	if err != nil {
		t.Fatalf("ListDueRules() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("rule still due after rearming: %v", rules)
	}
}

func TestCreatePendingDeduplicates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestPending(t, db, "media-1", "rule-1")

	// Same pair again while non-terminal.
	dup := &models.PendingDeletion{MediaID: "media-1", RuleID: "rule-1", ProposedBy: "system"}
	if err := db.CreatePending(ctx, dup); !errors.Is(err, ErrDuplicatePending) {
		t.Errorf("CreatePending(duplicate) error = %v, want ErrDuplicatePending", err)
	}

	// Different rule for the same media is fine.
	other := &models.PendingDeletion{MediaID: "media-1", RuleID: "rule-2", ProposedBy: "system"}
	if err := db.CreatePending(ctx, other); err != nil {
		t.Errorf("CreatePending(other rule) error = %v", err)
	}
}

func TestCreatePendingAllowedAfterTerminal(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestPending(t, db, "media-1", "rule-1")
	if err := db.CancelPending(ctx, p.ID, "admin", "changed my mind"); err != nil {
		t.Fatalf("CancelPending() error = %v", err)
	}

	// Terminal row no longer blocks a new proposal.
	again := &models.PendingDeletion{MediaID: "media-1", RuleID: "rule-1", ProposedBy: "system"}
	if err := db.CreatePending(ctx, again); err != nil {
		t.Errorf("CreatePending(after cancel) error = %v", err)
	}
}

func TestPendingTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestPending(t, db, "media-1", "rule-1")

	if err := db.ApprovePending(ctx, p.ID, "admin", nil); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}

	// Approve is only legal from pending.
	if err := db.ApprovePending(ctx, p.ID, "admin", nil); !errors.Is(err, ErrConflict) {
		t.Errorf("ApprovePending(approved) error = %v, want ErrConflict", err)
	}
	if err := db.ApprovePending(ctx, "missing", "admin", nil); !errors.Is(err, ErrPendingNotFound) {
		t.Errorf("ApprovePending(missing) error = %v, want ErrPendingNotFound", err)
	}

	got, err := db.GetPending(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if got.Status != models.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	if got.ApprovedBy == nil || *got.ApprovedBy != "admin" || got.ApprovedAt == nil {
		t.Errorf("approval actor/timestamp missing: %+v", got)
	}

	// Cancel from approved keeps the approval trail.
	if err := db.CancelPending(ctx, p.ID, "admin", "library rescan"); err != nil {
		t.Fatalf("CancelPending() error = %v", err)
	}
	got, err = db.GetPending(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if got.ApprovedBy == nil || got.CancelledBy == nil || got.CancelReason == nil {
		t.Errorf("expected both approval and cancellation records: %+v", got)
	}

	// Cancelled is terminal.
	if err := db.CancelPending(ctx, p.ID, "admin", "again"); !errors.Is(err, ErrConflict) {
		t.Errorf("CancelPending(cancelled) error = %v, want ErrConflict", err)
	}
}

func TestExecutionTransitions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	p := createTestPending(t, db, "media-1", "rule-1")
	if err := db.ApprovePending(ctx, p.ID, "admin", nil); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}

	failure := models.ExecutionResult{
		Timestamp:   time.Now(),
		Integration: "radarr",
		Success:     false,
		Error:       "connection refused",
		DurationMS:  120,
	}
	if err := db.FailExecution(ctx, p.ID, failure); err != nil {
		t.Fatalf("FailExecution() error = %v", err)
	}

	got, err := db.GetPending(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if got.Status != models.StatusFailed || got.RetryCount != 1 {
		t.Errorf("after failure: status=%s retries=%d, want failed/1", got.Status, got.RetryCount)
	}
	if got.LastError == nil || *got.LastError != "connection refused" {
		t.Errorf("last error = %v, want connection refused", got.LastError)
	}
	if len(got.ExecutionResults) != 1 {
		t.Fatalf("execution results = %d, want 1", len(got.ExecutionResults))
	}

	// Failed is retry-eligible: a later success completes it.
	success := models.ExecutionResult{
		Timestamp:   time.Now(),
		Integration: "radarr",
		Success:     true,
		BytesFreed:  4 << 30,
		DurationMS:  800,
	}
	if err := db.CompleteExecution(ctx, p.ID, success); err != nil {
		t.Fatalf("CompleteExecution() error = %v", err)
	}

	got, err = db.GetPending(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPending() error = %v", err)
	}
	if got.Status != models.StatusCompleted || got.CompletedAt == nil {
		t.Errorf("after success: %+v", got)
	}
	if len(got.ExecutionResults) != 2 {
		t.Errorf("execution results = %d, want 2 (full trail)", len(got.ExecutionResults))
	}

	// Completed is terminal for the engine too.
	if err := db.CompleteExecution(ctx, p.ID, success); !errors.Is(err, ErrConflict) {
		t.Errorf("CompleteExecution(completed) error = %v, want ErrConflict", err)
	}
}

func TestListDueForExecution(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	// Approved, unscheduled: due.
	a := createTestPending(t, db, "m1", "r1")
	if err := db.ApprovePending(ctx, a.ID, "admin", nil); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}

	// Approved, scheduled in the future: not due.
	b := createTestPending(t, db, "m2", "r1")
	future := now.Add(time.Hour)
	if err := db.ApprovePending(ctx, b.ID, "admin", &future); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}

	// Failed: due only with retries enabled.
	c := createTestPending(t, db, "m3", "r1")
	if err := db.ApprovePending(ctx, c.ID, "admin", nil); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}
	if err := db.FailExecution(ctx, c.ID, models.ExecutionResult{Error: "boom"}); err != nil {
		t.Fatalf("FailExecution() error = %v", err)
	}

	// Still pending: never due.
	createTestPending(t, db, "m4", "r1")

	due, err := db.ListDueForExecution(ctx, now, false, 0)
	if err != nil {
		t.Fatalf("ListDueForExecution() error = %v", err)
	}
	if len(due) != 1 || due[0].ID != a.ID {
		t.Errorf("without retries: got %d items, want only approved unscheduled", len(due))
	}

	due, err = db.ListDueForExecution(ctx, now, true, 0)
	if err != nil {
		t.Fatalf("ListDueForExecution() error = %v", err)
	}
	if len(due) != 2 {
		t.Errorf("with retries: got %d items, want 2", len(due))
	}

	due, err = db.ListDueForExecution(ctx, now, true, 1)
	if err != nil {
		t.Fatalf("ListDueForExecution() error = %v", err)
	}
	if len(due) != 1 {
		t.Errorf("limit ignored: got %d items, want 1", len(due))
	}
}

func TestSummarizePending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a := createTestPending(t, db, "m1", "r1")
	createTestPending(t, db, "m2", "r1")
	if err := db.ApprovePending(ctx, a.ID, "admin", nil); err != nil {
		t.Fatalf("ApprovePending() error = %v", err)
	}

	summaries, err := db.SummarizePending(ctx)
	if err != nil {
		t.Fatalf("SummarizePending() error = %v", err)
	}

	byStatus := make(map[string]models.PendingSummary)
	for _, s := range summaries {
		byStatus[s.Status] = s
	}
	if byStatus[models.StatusPending].Count != 1 {
		t.Errorf("pending count = %d, want 1", byStatus[models.StatusPending].Count)
	}
	if byStatus[models.StatusApproved].Count != 1 {
		t.Errorf("approved count = %d, want 1", byStatus[models.StatusApproved].Count)
	}
	if byStatus[models.StatusApproved].TotalSizeBytes != 4<<30 {
		t.Errorf("approved size = %d, want %d", byStatus[models.StatusApproved].TotalSizeBytes, int64(4<<30))
	}
}

func TestHistoryAppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	ruleID := "rule-1"
	h := &models.DeletionHistory{
		Trigger:    models.TriggerScheduled,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Total:      2,
		Succeeded:  1,
		Failed:     1,
		BytesFreed: 4 << 30,
		Items: []models.HistoryItem{
			{PendingID: "p1", MediaID: "m1", MediaTitle: "Inception", MediaType: "movie", RuleID: &ruleID, RuleName: "Old movies", Status: models.StatusCompleted, BytesFreed: 4 << 30},
			{PendingID: "p2", MediaID: "m2", MediaTitle: "The Matrix", MediaType: "movie", RuleID: &ruleID, RuleName: "Old movies", Status: models.StatusFailed, Error: "timeout"},
		},
	}
	if err := db.CreateHistory(ctx, h); err != nil {
		t.Fatalf("CreateHistory() error = %v", err)
	}

	// Zero-item pass still gets a row.
	empty := &models.DeletionHistory{
		Trigger:    models.TriggerManual,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	if err := db.CreateHistory(ctx, empty); err != nil {
		t.Fatalf("CreateHistory(empty) error = %v", err)
	}

	list, err := db.ListHistory(ctx, HistoryFilter{})
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("history rows = %d, want 2", len(list))
	}

	got, err := db.GetHistory(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].RuleName != "Old movies" {
		t.Errorf("items round trip failed: %+v", got.Items)
	}
	if got.Items[1].Error != "timeout" {
		t.Errorf("item error lost: %+v", got.Items[1])
	}

	scheduled, err := db.ListHistory(ctx, HistoryFilter{Trigger: models.TriggerScheduled})
	if err != nil {
		t.Fatalf("ListHistory(trigger) error = %v", err)
	}
	if len(scheduled) != 1 {
		t.Errorf("scheduled rows = %d, want 1", len(scheduled))
	}
}
