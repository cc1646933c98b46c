// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package metrics exposes Prometheus collectors for rule evaluation,
// execution passes, downloader integrations, and the HTTP API. Collectors
// are registered through promauto at package load; record through the
// helper functions rather than touching collectors directly.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Rule evaluation metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_rule_evaluations_total",
			Help: "Total rule evaluations by mode (preview or propose)",
		},
		[]string{"mode"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "managarr_rule_evaluation_duration_seconds",
			Help:    "Duration of one rule evaluation over the media library",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	EvaluationMatches = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "managarr_rule_evaluation_matches",
			Help:    "Matched media count per rule evaluation",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"mode"},
	)

	// Execution pass metrics
	ExecutionPassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_execution_passes_total",
			Help: "Total execution passes by trigger and outcome",
		},
		[]string{"trigger", "outcome"}, // outcome: completed, busy
	)

	ExecutionPassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "managarr_execution_pass_duration_seconds",
			Help:    "Duration of one execution pass",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	ExecutionItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_execution_items_total",
			Help: "Processed pending deletions by result",
		},
		[]string{"result"}, // completed, failed
	)

	ExecutionBytesFreed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "managarr_execution_bytes_freed_total",
			Help: "Total bytes freed by completed deletions",
		},
	)

	// Pending lifecycle metrics
	LifecycleTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_lifecycle_transitions_total",
			Help: "Pending-deletion state transitions by target status",
		},
		[]string{"to_status", "outcome"}, // outcome: ok, conflict, not_found
	)

	// Integration client metrics
	IntegrationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_integration_requests_total",
			Help: "HTTP requests against downloader integrations",
		},
		[]string{"integration", "operation", "status"},
	)

	IntegrationRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "managarr_integration_request_duration_seconds",
			Help:    "Duration of integration HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"integration", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "managarr_circuit_breaker_state",
			Help: "Circuit breaker state per integration (0=closed, 1=half-open, 2=open)",
		},
		[]string{"integration"},
	)

	// Scheduler metrics
	SchedulerTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "managarr_scheduler_ticks_total",
			Help: "Scheduler ticks executed",
		},
	)

	SchedulerRuleRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_scheduler_rule_runs_total",
			Help: "Scheduled rule runs by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "managarr_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "managarr_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "managarr_db_query_errors_total",
			Help: "Total DuckDB query errors",
		},
		[]string{"operation", "table"},
	)
)

// RecordEvaluation records one rule evaluation.
func RecordEvaluation(mode string, matched int, duration time.Duration) {
	EvaluationsTotal.WithLabelValues(mode).Inc()
	EvaluationDuration.WithLabelValues(mode).Observe(duration.Seconds())
	EvaluationMatches.WithLabelValues(mode).Observe(float64(matched))
}

// RecordExecutionPass records one completed (or busy-rejected) pass.
func RecordExecutionPass(trigger, outcome string, duration time.Duration) {
	ExecutionPassesTotal.WithLabelValues(trigger, outcome).Inc()
	if outcome != "busy" {
		ExecutionPassDuration.Observe(duration.Seconds())
	}
}

// RecordExecutionItem records one processed item.
func RecordExecutionItem(result string, bytesFreed int64) {
	ExecutionItemsTotal.WithLabelValues(result).Inc()
	if bytesFreed > 0 {
		ExecutionBytesFreed.Add(float64(bytesFreed))
	}
}

// RecordTransition records one lifecycle transition attempt.
func RecordTransition(toStatus, outcome string) {
	LifecycleTransitionsTotal.WithLabelValues(toStatus, outcome).Inc()
}

// RecordIntegrationRequest records one integration HTTP call.
func RecordIntegrationRequest(integration, operation string, statusCode int, duration time.Duration) {
	IntegrationRequestsTotal.WithLabelValues(integration, operation, strconv.Itoa(statusCode)).Inc()
	IntegrationRequestDuration.WithLabelValues(integration, operation).Observe(duration.Seconds())
}

// SetCircuitBreakerState updates the breaker gauge for an integration.
func SetCircuitBreakerState(integration string, state float64) {
	CircuitBreakerState.WithLabelValues(integration).Set(state)
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery records one database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}
