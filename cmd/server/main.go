// Managarr - Media Library Housekeeping and Scheduled Deletion
// Copyright 2026 H. Elliott (helliott20)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/helliott20/managarr-sub001

// Command server runs the Managarr housekeeping service: the HTTP API, the
// deletion scheduler, and the execution engine, all under one supervision
// tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helliott20/managarr-sub001/internal/api"
	"github.com/helliott20/managarr-sub001/internal/config"
	"github.com/helliott20/managarr-sub001/internal/database"
	"github.com/helliott20/managarr-sub001/internal/events"
	"github.com/helliott20/managarr-sub001/internal/executor"
	"github.com/helliott20/managarr-sub001/internal/integrations"
	"github.com/helliott20/managarr-sub001/internal/lifecycle"
	"github.com/helliott20/managarr-sub001/internal/logging"
	"github.com/helliott20/managarr-sub001/internal/rules"
	"github.com/helliott20/managarr-sub001/internal/scheduler"
	"github.com/helliott20/managarr-sub001/internal/supervisor"
	"github.com/helliott20/managarr-sub001/internal/supervisor/services"
)

const eventBufferSize = 256

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Caller = cfg.Logging.Caller
	logging.Init(logCfg)
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("radarr", cfg.Radarr.Enabled).
		Bool("sonarr", cfg.Sonarr.Enabled).
		Bool("scheduler", cfg.Scheduler.Enabled).
		Msg("starting managarr")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Err(err).Msg("closing database")
		}
	}()

	clients := buildIntegrations(cfg)

	bus := events.NewBus(eventBufferSize, events.NewLoggerAdapter(logging.Logger()))
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Err(err).Msg("closing event bus")
		}
	}()

	evaluator := rules.NewEvaluator(db)
	manager := lifecycle.NewManager(db)
	engine := executor.NewEngine(db, clients, bus, &cfg.Executor)
	sched := scheduler.New(db, evaluator, engine, bus, cfg.Scheduler)

	handler := api.NewHandler(db, evaluator, manager, engine, sched, &cfg.API)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Router(handler, &cfg.Server),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddHousekeepingService(services.NewStartStopService(sched, "scheduler"))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", srv.Addr).Msg("serving")
	err = tree.Serve(ctx)
	if err != nil && ctx.Err() != nil {
		// A signal-driven shutdown reports context.Canceled; not a failure.
		err = nil
	}
	if unstopped, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service missed shutdown timeout")
		}
	}
	logging.Info().Msg("shutdown complete")
	return err
}

// buildIntegrations constructs the enabled downloader clients, each wrapped
// in a circuit breaker, keyed by integration name.
func buildIntegrations(cfg *config.Config) map[string]integrations.Client {
	clients := make(map[string]integrations.Client)
	if cfg.Radarr.Enabled {
		clients["radarr"] = integrations.WithBreaker(integrations.NewRadarrClient(&cfg.Radarr))
	}
	if cfg.Sonarr.Enabled {
		clients["sonarr"] = integrations.WithBreaker(integrations.NewSonarrClient(&cfg.Sonarr))
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for name, client := range clients {
		if err := client.Ping(pingCtx); err != nil {
			// Reachability is checked again on every pass; startup proceeds.
			logging.Warn().Err(err).Str("integration", name).Msg("integration unreachable at startup")
		} else {
			logging.Info().Str("integration", name).Msg("integration connected")
		}
	}
	return clients
}
