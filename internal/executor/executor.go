// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package executor runs execution passes: it picks up due approved (and
// retry-eligible failed) deletions, carries each out against the owning
// integration with a worker pool, and writes exactly one history row per
// pass. At most one pass runs at a time across the whole process.
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/events"
	"github.com/helliott20/managarr-sub001/internal/integrations"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// ErrPassInProgress is returned when Execute is called while another pass
// holds the execution lock.
var ErrPassInProgress = errors.New("an execution pass is already running")

// Store is the persistence surface the engine needs. *database.DB
// satisfies it.
type Store interface {
	ListDueForExecution(ctx context.Context, now time.Time, retryFailed bool, limit int) ([]models.PendingDeletion, error)
	CompleteExecution(ctx context.Context, id string, result models.ExecutionResult) error
	FailExecution(ctx context.Context, id string, result models.ExecutionResult) error
	CreateHistory(ctx context.Context, h *models.DeletionHistory) error
}

// Engine executes approved deletions. Integrations are keyed by name; the
// media type of each item selects the integration through its rule
// snapshot's deletion strategy.
type Engine struct {
	store     Store
	clients   map[string]integrations.Client
	publisher events.Publisher
	cfg       *config.ExecutorConfig

	// passMu serializes execution passes. TryLock makes concurrent callers
	// fail fast instead of queueing.
	passMu  sync.Mutex
	running bool
	mu      sync.RWMutex
}

// NewEngine creates an execution engine. clients maps integration names
// ("radarr", "sonarr") to their clients.
func NewEngine(store Store, clients map[string]integrations.Client, publisher events.Publisher, cfg *config.ExecutorConfig) *Engine {
	return &Engine{
		store:     store,
		clients:   clients,
		publisher: publisher,
		cfg:       cfg,
	}
}

// IsRunning reports whether a pass is currently executing.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Execute runs one pass: list due items, delete each through its
// integration, record per-item transitions, then append one history row.
// Items fail independently; a pass with failures still succeeds as a pass.
// Returns ErrPassInProgress without side effects when a pass is already
// running. Every completed pass writes a history row, even with zero items.
func (e *Engine) Execute(ctx context.Context, trigger string) (*models.BatchSummary, error) {
	if !e.passMu.TryLock() {
		metrics.RecordExecutionPass(trigger, "busy", 0)
		return &models.BatchSummary{Busy: true}, ErrPassInProgress
	}
	defer e.passMu.Unlock()

	e.setRunning(true)
	defer e.setRunning(false)

	if e.cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.PassTimeout)
		defer cancel()
	}

	started := time.Now().UTC()
	due, err := e.store.ListDueForExecution(ctx, started, e.cfg.RetryFailed, e.cfg.BatchSize)
	if err != nil {
		metrics.RecordExecutionPass(trigger, "error", time.Since(started))
		return nil, err
	}

	items := e.runPool(ctx, due)
	finished := time.Now().UTC()

	summary := &models.BatchSummary{
		Total:      len(due),
		StartedAt:  started,
		FinishedAt: finished,
	}
	for i := range items {
		if items[i].Status == models.StatusCompleted {
			summary.Succeeded++
			summary.BytesFreed += items[i].BytesFreed
		} else {
			summary.Failed++
		}
	}

	history := &models.DeletionHistory{
		Trigger:    trigger,
		StartedAt:  started,
		FinishedAt: finished,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		BytesFreed: summary.BytesFreed,
		Items:      items,
	}
	if err := e.store.CreateHistory(ctx, history); err != nil {
		metrics.RecordExecutionPass(trigger, "error", time.Since(started))
		return summary, err
	}

	metrics.RecordExecutionPass(trigger, "ok", finished.Sub(started))
	e.publish(ctx, models.TopicPassCompleted, models.PassCompletedEvent{
		HistoryID: history.ID,
		Trigger:   trigger,
		Summary:   *summary,
	})

	logging.Info().
		Str("trigger", trigger).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int64("bytes_freed", summary.BytesFreed).
		Msg("Execution pass finished")

	return summary, nil
}

// runPool fans the due items out over a bounded worker pool and collects
// one history item per input, in input order.
func (e *Engine) runPool(ctx context.Context, due []models.PendingDeletion) []models.HistoryItem {
	if len(due) == 0 {
		return nil
	}

	workers := e.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(due) {
		workers = len(due)
	}

	items := make([]models.HistoryItem, len(due))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				items[i] = e.executeItem(ctx, &due[i])
			}
		}()
	}
	for i := range due {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return items
}

// executeItem carries out one deletion and persists its outcome. All
// failures are recorded on the row and in history; none abort the pass.
func (e *Engine) executeItem(ctx context.Context, p *models.PendingDeletion) models.HistoryItem {
	item := models.HistoryItem{
		PendingID: p.ID,
		MediaID:   p.MediaID,
	}
	if p.RuleID != "" {
		ruleID := p.RuleID
		item.RuleID = &ruleID
	}
	if p.RuleSnapshot != nil {
		item.RuleName = p.RuleSnapshot.Name
	}

	media := p.MediaSnapshot
	if media == nil {
		return e.failItem(ctx, p, item, "", "pending deletion has no media snapshot")
	}
	item.MediaTitle = media.Title
	item.MediaType = media.Type

	integration := integrationForType(media.Type)
	client, ok := e.clients[integration]
	if !ok {
		return e.failItem(ctx, p, item, integration, "no enabled integration for media type "+media.Type)
	}

	strategy := models.IntegrationStrategy{Action: models.ActionRemove, DeleteFiles: true}
	if p.RuleSnapshot != nil {
		if s, ok := p.RuleSnapshot.Strategy.ForMediaType(media.Type); ok {
			strategy = s
		}
	}

	itemCtx := ctx
	if e.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, e.cfg.ItemTimeout)
		defer cancel()
	}

	start := time.Now()
	bytesFreed, err := client.Delete(itemCtx, media, strategy)
	duration := time.Since(start)

	if err != nil {
		logging.Warn().
			Err(err).
			Str("pending_id", p.ID).
			Str("media_title", media.Title).
			Str("integration", integration).
			Msg("Deletion failed")
		return e.failItemResult(ctx, p, item, models.ExecutionResult{
			Timestamp:   time.Now().UTC(),
			Integration: integration,
			DurationMS:  duration.Milliseconds(),
			Error:       err.Error(),
		})
	}

	result := models.ExecutionResult{
		Timestamp:   time.Now().UTC(),
		Integration: integration,
		Success:     true,
		BytesFreed:  bytesFreed,
		DurationMS:  duration.Milliseconds(),
	}
	if err := e.store.CompleteExecution(ctx, p.ID, result); err != nil {
		// The deletion happened but the row could not be marked. The next
		// pass will retry and the integration treats the item as already
		// gone, so this stays consistent.
		logging.Error().
			Err(err).
			Str("pending_id", p.ID).
			Msg("Failed to record completed deletion")
		item.Status = models.StatusFailed
		item.Error = "deletion succeeded but could not be recorded: " + err.Error()
		metrics.RecordExecutionItem("error", 0)
		return item
	}

	item.Status = models.StatusCompleted
	item.BytesFreed = bytesFreed
	metrics.RecordExecutionItem("success", bytesFreed)
	e.publish(ctx, models.TopicDeletionCompleted, e.deletionEvent(p, item, ""))
	return item
}

func (e *Engine) failItem(ctx context.Context, p *models.PendingDeletion, item models.HistoryItem, integration, msg string) models.HistoryItem {
	return e.failItemResult(ctx, p, item, models.ExecutionResult{
		Timestamp:   time.Now().UTC(),
		Integration: integration,
		Error:       msg,
	})
}

func (e *Engine) failItemResult(ctx context.Context, p *models.PendingDeletion, item models.HistoryItem, result models.ExecutionResult) models.HistoryItem {
	item.Status = models.StatusFailed
	item.Error = result.Error
	if err := e.store.FailExecution(ctx, p.ID, result); err != nil {
		logging.Error().
			Err(err).
			Str("pending_id", p.ID).
			Msg("Failed to record failed deletion")
	}
	metrics.RecordExecutionItem("failure", 0)
	e.publish(ctx, models.TopicDeletionFailed, e.deletionEvent(p, item, result.Error))
	return item
}

func (e *Engine) deletionEvent(p *models.PendingDeletion, item models.HistoryItem, errMsg string) models.DeletionEvent {
	event := models.DeletionEvent{
		PendingID:  p.ID,
		MediaID:    p.MediaID,
		MediaTitle: item.MediaTitle,
		MediaType:  item.MediaType,
		RuleID:     p.RuleID,
		RuleName:   item.RuleName,
		BytesFreed: item.BytesFreed,
		Error:      errMsg,
		Timestamp:  time.Now().UTC(),
	}
	return event
}

func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		logging.Warn().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

func (e *Engine) setRunning(v bool) {
	e.mu.Lock()
	e.running = v
	e.mu.Unlock()
}

// integrationForType maps a media type to the integration that owns it.
func integrationForType(mediaType string) string {
	switch mediaType {
	case models.MediaTypeMovie:
		return "radarr"
	case models.MediaTypeSeries:
		return "sonarr"
	default:
		return ""
	}
}
