// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard wires the launch-records dashboard service together.
//
// # Description
//
// New loads the dataset, builds the page, registers the chart callbacks and
// the HTTP routes. Run serves until its context is cancelled and then shuts
// the server down gracefully.
//
//	dataset.Load ──► layout.Build ──► layout.RenderBytes
//	      │                                   │
//	      ▼                                   ▼
//	handlers.RegisterCallbacks ──► routes.SetupRoutes ──► http.Server
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/AleutianAI/LaunchDash/services/dashboard/handlers"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/AleutianAI/LaunchDash/services/dashboard/middleware"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
	"github.com/AleutianAI/LaunchDash/services/dashboard/routes"
	"github.com/AleutianAI/LaunchDash/services/dashboard/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// =============================================================================
// Service Interface
// =============================================================================

// Service is a runnable dashboard.
type Service interface {
	// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
	Run(ctx context.Context) error

	// Router exposes the gin engine, for tests.
	Router() *gin.Engine

	// Table returns the loaded dataset.
	Table() *dataset.Table
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds dashboard settings. Zero values take defaults.
type Config struct {
	// Host to bind. Default: all interfaces.
	Host string

	// Port to listen on. Default: 8090.
	Port int

	// DatasetPath is the launch CSV. Default: data/spacex_launch_dash.csv.
	DatasetPath string

	// Title is the page heading. Default: layout.DefaultTitle.
	Title string

	// Sites is the dropdown list. Default: layout.DefaultSites.
	Sites []string

	// GinMode is passed to gin.SetMode when set.
	GinMode string

	// RateLimitRPS bounds callback dispatches per second. Zero or negative
	// disables the limiter.
	RateLimitRPS float64

	// RateLimitBurst is the token bucket size. Default: 20.
	RateLimitBurst int

	// ShutdownTimeout bounds graceful shutdown. Default: 5s.
	ShutdownTimeout time.Duration

	// Telemetry selects trace and metric exporters.
	Telemetry telemetry.Config
}

// DefaultDatasetPath is the bundled dataset, relative to the repository root.
const DefaultDatasetPath = "data/spacex_launch_dash.csv"

// DefaultPort is the port the dashboard listens on.
const DefaultPort = 8090

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = DefaultDatasetPath
	}
	if cfg.Title == "" {
		cfg.Title = layout.DefaultTitle
	}
	if len(cfg.Sites) == 0 {
		cfg.Sites = layout.DefaultSites
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "launchdash"
	}
	if cfg.Telemetry.TraceExporter == "" {
		cfg.Telemetry.TraceExporter = telemetry.ExporterNone
	}
	if cfg.Telemetry.MetricExporter == "" {
		cfg.Telemetry.MetricExporter = telemetry.ExporterNone
	}
	return cfg
}

// =============================================================================
// Service Implementation
// =============================================================================

type service struct {
	config    Config
	table     *dataset.Table
	page      layout.Page
	html      []byte
	callbacks *reactive.Registry
	registry  *prometheus.Registry
	metrics   *observability.DashboardMetrics
	limiter   *rate.Limiter
	router    *gin.Engine

	telemetryShutdown func(context.Context) error
}

// New builds a dashboard from cfg.
//
// # Description
//
// Loads the dataset (fatal on any parse error), warns about dataset sites
// missing from the dropdown list, and wires telemetry, metrics, callbacks
// and routes. Metrics live on a private registry so several services can
// coexist in one process.
//
// # Inputs
//
//   - ctx: Used for telemetry exporter construction.
//   - cfg: Settings. Zero values take defaults.
//
// # Outputs
//
//   - Service: Ready to Run.
//   - error: Wrapped dataset or telemetry error.
func New(ctx context.Context, cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	table, err := dataset.Load(s.config.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	s.table = table
	slog.Info("Loaded launch dataset",
		"path", s.config.DatasetPath,
		"records", table.Len(),
		"payload_min_kg", table.PayloadMin(),
		"payload_max_kg", table.PayloadMax())

	if unknown := table.UnknownSites(s.config.Sites); len(unknown) > 0 {
		slog.Warn("Dataset has launch sites missing from the dropdown",
			"sites", unknown)
	}

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.metrics = observability.NewDashboardMetrics(s.registry)
	s.metrics.SetDatasetRecords(table.Len())

	telemetryCfg := s.config.Telemetry
	telemetryCfg.Registerer = s.registry
	s.telemetryShutdown, err = telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	s.page = layout.Build(layout.Options{
		Title:      s.config.Title,
		Sites:      s.config.Sites,
		PayloadMin: table.PayloadMin(),
		PayloadMax: table.PayloadMax(),
	})
	s.html, err = layout.RenderBytes(s.page)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	s.callbacks = reactive.NewRegistry()
	if err := handlers.RegisterCallbacks(s.callbacks, table, s.metrics); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to register callbacks: %w", err)
	}

	if s.config.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(s.config.RateLimitRPS), s.config.RateLimitBurst)
	}

	s.initRouter()
	return s, nil
}

// Run serves until ctx is cancelled.
//
// # Description
//
// One errgroup goroutine runs the listener, a second waits for ctx and
// calls Shutdown with ShutdownTimeout. A listener failure cancels the group
// so the watcher exits too.
//
// # Outputs
//
//   - error: nil after a clean shutdown, otherwise the listen or shutdown error.
func (s *service) Run(ctx context.Context) error {
	defer s.cleanup()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Starting dashboard server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down dashboard server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Table() *dataset.Table {
	return s.table
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware(s.config.Telemetry.ServiceName))
	s.router.Use(middleware.RequestID())

	routes.SetupRoutes(s.router, routes.Options{
		Table:    s.table,
		Page:     s.page,
		PageHTML: s.html,
		Registry: s.callbacks,
		Metrics:  s.metrics,
		Limiter:  s.limiter,
		Gatherer: s.registry,
	})
}

func (s *service) cleanup() {
	if s.telemetryShutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.telemetryShutdown(ctx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}
	s.telemetryShutdown = nil
}

// Compile-time interface check
var _ Service = (*service)(nil)
