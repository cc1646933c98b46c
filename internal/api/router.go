// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Package api provides the HTTP surface: rule management, pending-deletion
// review, execution control and history, all wrapped in a standard response
// envelope.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/metrics"
	"github.com/helliott20/managarr-sub001/internal/models"
)

// Store is the persistence surface the handlers need. *database.DB
// satisfies it.
type Store interface {
	Ping(ctx context.Context) error

	CreateRule(ctx context.Context, rule *models.DeletionRule) error
	GetRule(ctx context.Context, id string) (*models.DeletionRule, error)
	ListRules(ctx context.Context, filter database.RuleFilter) ([]models.DeletionRule, error)
	CountRules(ctx context.Context, filter database.RuleFilter) (int, error)
	UpdateRule(ctx context.Context, rule *models.DeletionRule) error
	DeleteRule(ctx context.Context, id string) error

	GetPending(ctx context.Context, id string) (*models.PendingDeletion, error)
	ListPending(ctx context.Context, filter database.PendingFilter) ([]models.PendingDeletion, error)
	CountPending(ctx context.Context, filter database.PendingFilter) (int, error)
	SummarizePending(ctx context.Context) ([]models.PendingSummary, error)

	ListMedia(ctx context.Context, filter database.MediaFilter) ([]models.Media, error)
	CountMedia(ctx context.Context, filter database.MediaFilter) (int, error)
	SetMediaProtected(ctx context.Context, id string, protected bool) error

	GetHistory(ctx context.Context, id string) (*models.DeletionHistory, error)
	ListHistory(ctx context.Context, filter database.HistoryFilter) ([]models.DeletionHistory, error)
	CountHistory(ctx context.Context, filter database.HistoryFilter) (int, error)
}

// Evaluator runs rules in preview or propose mode. *rules.Evaluator
// satisfies it.
type Evaluator interface {
	Preview(ctx context.Context, rule *models.DeletionRule) (*models.PreviewResult, error)
	Propose(ctx context.Context, rule *models.DeletionRule, proposedBy string) (*models.ProposeResult, error)
}

// Lifecycle drives pending-deletion transitions. *lifecycle.Manager
// satisfies it.
type Lifecycle interface {
	Approve(ctx context.Context, id, actor string, scheduledDate *time.Time) (*models.PendingDeletion, error)
	Cancel(ctx context.Context, id, actor, reason string) (*models.PendingDeletion, error)
	BulkApprove(ctx context.Context, ids []string, actor string, scheduledDate *time.Time) *models.BulkResponse
	BulkCancel(ctx context.Context, ids []string, actor, reason string) *models.BulkResponse
}

// Engine runs execution passes. *executor.Engine satisfies it.
type Engine interface {
	Execute(ctx context.Context, trigger string) (*models.BatchSummary, error)
	IsRunning() bool
}

// Scheduler controls the recurring timer. *scheduler.Scheduler satisfies it.
// Arm with a non-positive interval keeps the configured one.
type Scheduler interface {
	Arm(interval time.Duration) error
	Stop() error
	Status() models.SchedulerStatus
}

// Handler holds the wired components behind the HTTP surface.
type Handler struct {
	store     Store
	evaluator Evaluator
	lifecycle Lifecycle
	engine    Engine
	scheduler Scheduler
	cfg       *config.APIConfig
}

// NewHandler wires the HTTP handlers to their backing components.
func NewHandler(store Store, evaluator Evaluator, lifecycle Lifecycle, engine Engine, scheduler Scheduler, cfg *config.APIConfig) *Handler {
	return &Handler{
		store:     store,
		evaluator: evaluator,
		lifecycle: lifecycle,
		engine:    engine,
		scheduler: scheduler,
		cfg:       cfg,
	}
}

// Router builds the Chi router with the full middleware stack and all
// routes.
func Router(h *Handler, serverCfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   serverCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", actorHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		if !serverCfg.RateLimitDisabled {
			r.Use(httprate.LimitByIP(serverCfg.RateLimitReqs, serverCfg.RateLimitWindow))
		}

		r.Get("/health", h.Health)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/", h.CreateRule)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRule)
				r.Put("/", h.UpdateRule)
				r.Delete("/", h.DeleteRule)
				r.Post("/preview", h.PreviewRule)
				r.Post("/propose", h.ProposeRule)
			})
		})

		r.Route("/pending", func(r chi.Router) {
			r.Get("/", h.ListPending)
			r.Get("/summary", h.PendingSummary)
			r.Post("/bulk/approve", h.BulkApprove)
			r.Post("/bulk/cancel", h.BulkCancel)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPending)
				r.Post("/approve", h.ApprovePending)
				r.Post("/cancel", h.CancelPending)
			})
		})

		r.Route("/execute", func(r chi.Router) {
			r.Post("/", h.Execute)
			r.Get("/status", h.ExecuteStatus)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start", h.SchedulerStart)
			r.Post("/stop", h.SchedulerStop)
			r.Get("/status", h.SchedulerStatus)
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", h.ListMedia)
			r.Post("/{id}/protect", h.ProtectMedia)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", h.ListHistory)
			r.Get("/{id}", h.GetHistory)
		})
	})

	return r
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
