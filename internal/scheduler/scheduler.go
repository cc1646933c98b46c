// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package scheduler drives recurring housekeeping: on each tick it runs the
// rules whose per-rule schedule is due, proposing deletions, then runs one
// execution pass for everything approved and due. Run-now requests go
// through the same engine code path, so scheduled and manual passes behave
// identically.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/events"
	"github.com/helliott20/managarr-sub001/internal/executor"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
	"github.com/helliott20/managarr-sub001/internal/rules"
)

// MinInterval is the floor for the recurring timer. Shorter configured
// intervals are clamped, not rejected.
const MinInterval = 5 * time.Minute

// Store is the persistence surface the scheduler needs. *database.DB
// satisfies it.
type Store interface {
	ListDueRules(ctx context.Context, now time.Time) ([]models.DeletionRule, error)
	UpdateRuleRunTimes(ctx context.Context, id string, lastRun time.Time, nextRun *time.Time) error
}

// Proposer evaluates one rule and persists its matches. *rules.Evaluator
// satisfies it.
type Proposer interface {
	Propose(ctx context.Context, rule *models.DeletionRule, proposedBy string) (*models.ProposeResult, error)
}

// Engine runs execution passes. *executor.Engine satisfies it.
type Engine interface {
	Execute(ctx context.Context, trigger string) (*models.BatchSummary, error)
	IsRunning() bool
}

// Scheduler owns the recurring timer. It implements Start/Stop so the
// supervisor tree can manage it as a service.
type Scheduler struct {
	store     Store
	proposer  Proposer
	engine    Engine
	publisher events.Publisher
	cfg       config.SchedulerConfig

	mu         sync.Mutex
	running    bool
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	cancelRun  context.CancelFunc
	lastRun    *time.Time
	lastResult *models.BatchSummary
}

// New creates a scheduler. The configured interval is clamped to
// MinInterval.
func New(store Store, proposer Proposer, engine Engine, publisher events.Publisher, cfg config.SchedulerConfig) *Scheduler {
	if cfg.Interval < MinInterval {
		logging.Warn().
			Dur("configured", cfg.Interval).
			Dur("minimum", MinInterval).
			Msg("Scheduler interval below the floor, clamping")
		cfg.Interval = MinInterval
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 30 * time.Minute
	}
	return &Scheduler{
		store:     store,
		proposer:  proposer,
		engine:    engine,
		publisher: publisher,
		cfg:       cfg,
		interval:  cfg.Interval,
	}
}

// Start arms the timer with the configured interval, unless the scheduler is
// disabled in configuration. A disabled scheduler can still be armed later
// through Arm.
func (s *Scheduler) Start(_ context.Context) error {
	if !s.cfg.Enabled {
		logging.Info().Msg("Scheduler disabled, timer not armed")
		return nil
	}
	return s.Arm(0)
}

// Arm starts the timer loop. interval <= 0 keeps the configured interval;
// shorter values are clamped to MinInterval. Arming an armed scheduler is a
// no-op that keeps the current interval. The loop's lifetime is owned by the
// scheduler itself and ends only through Stop, never through a caller's
// context.
func (s *Scheduler) Arm(interval time.Duration) error {
	if interval <= 0 {
		interval = s.cfg.Interval
	}
	if interval < MinInterval {
		logging.Warn().
			Dur("requested", interval).
			Dur("minimum", MinInterval).
			Msg("Scheduler interval below the floor, clamping")
		interval = MinInterval
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.interval = interval
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	s.mu.Unlock()

	logging.Info().
		Dur("interval", interval).
		Msg("Starting scheduler")

	go s.run(runCtx, interval, s.stopCh, s.doneCh)
	return nil
}

// Stop halts the timer loop and waits for the current tick to finish.
// Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopCh, doneCh, cancel := s.stopCh, s.doneCh, s.cancelRun
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
	cancel()

	logging.Info().Msg("Scheduler stopped")
	return nil
}

// Status reports the scheduler's armed state and the last pass it ran.
func (s *Scheduler) Status() models.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SchedulerStatus{
		Armed:      s.running,
		Running:    s.engine.IsRunning(),
		Interval:   s.interval.String(),
		LastRun:    s.lastRun,
		LastResult: s.lastResult,
	}
}

// run owns one armed period. The channels come in as arguments so a
// stop-then-rearm cannot swap them out from under a draining loop.
func (s *Scheduler) run(ctx context.Context, interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-stopCh:
			return
		}
	}
}

// tick runs one scheduler cycle: due rules first so their proposals can be
// picked up by a later approval, then one execution pass.
func (s *Scheduler) tick(ctx context.Context) {
	metrics.SchedulerTicksTotal.Inc()
	s.runDueRules(ctx)

	execCtx, cancel := context.WithTimeout(ctx, s.cfg.ExecutionTimeout)
	defer cancel()

	summary, err := s.engine.Execute(execCtx, models.TriggerScheduled)
	if err != nil {
		if errors.Is(err, executor.ErrPassInProgress) {
			logging.Info().Msg("Skipping scheduled pass, another pass is running")
			return
		}
		logging.Error().Err(err).Msg("Scheduled execution pass failed")
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.lastRun = &now
	s.lastResult = summary
	s.mu.Unlock()
}

// runDueRules proposes deletions for every enabled rule whose next run time
// has arrived and rearms each rule's timer. Rules fail independently.
func (s *Scheduler) runDueRules(ctx context.Context) {
	now := time.Now().UTC()
	due, err := s.store.ListDueRules(ctx, now)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to list due rules")
		return
	}

	for i := range due {
		rule := &due[i]
		result, err := s.proposer.Propose(ctx, rule, "scheduler")
		if err != nil {
			metrics.SchedulerRuleRunsTotal.WithLabelValues("error").Inc()
			logging.Error().
				Err(err).
				Str("rule_id", rule.ID).
				Str("rule_name", rule.Name).
				Msg("Scheduled rule run failed")
		} else {
			metrics.SchedulerRuleRunsTotal.WithLabelValues("ok").Inc()
			s.publish(ctx, models.RuleExecutedEvent{
				RuleID:    rule.ID,
				RuleName:  rule.Name,
				Proposed:  result.Proposed,
				Skipped:   result.Skipped,
				Timestamp: now,
			})
		}

		// Rearm even after a failed run so a broken rule cannot hot-loop.
		nextRun, err := rules.NextRun(rule.Schedule, now)
		if err != nil {
			logging.Error().
				Err(err).
				Str("rule_id", rule.ID).
				Msg("Failed to compute next run time")
			continue
		}
		if err := s.store.UpdateRuleRunTimes(ctx, rule.ID, now, nextRun); err != nil {
			logging.Error().
				Err(err).
				Str("rule_id", rule.ID).
				Msg("Failed to update rule run times")
		}
	}
}

func (s *Scheduler) publish(ctx context.Context, event models.RuleExecutedEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, models.TopicRuleExecuted, event); err != nil {
		logging.Warn().Err(err).Msg("Failed to publish rule executed event")
	}
}
