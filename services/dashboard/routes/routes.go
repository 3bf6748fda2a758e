// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/AleutianAI/LaunchDash/services/dashboard/handlers"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/AleutianAI/LaunchDash/services/dashboard/middleware"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Options carries everything the routes read.
type Options struct {
	Table    *dataset.Table
	Page     layout.Page
	PageHTML []byte
	Registry *reactive.Registry
	Metrics  *observability.DashboardMetrics

	// Limiter guards the callback endpoint. nil disables limiting.
	Limiter *rate.Limiter

	// Gatherer backs /metrics. nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// SetupRoutes registers every dashboard endpoint on router.
func SetupRoutes(router *gin.Engine, opts Options) {
	router.GET(handlers.PathHealth, handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(metricsHandler(opts.Gatherer)))
	router.StaticFS("/assets", http.FS(layout.Assets()))

	router.GET(handlers.PathIndex, handlers.HandleIndex(opts.PageHTML))
	router.GET(handlers.PathLayout, handlers.HandleLayout(opts.Page))
	router.GET(handlers.PathDependencies, handlers.HandleDependencies(opts.Registry))
	router.POST(handlers.PathUpdateComponent,
		middleware.RateLimit(opts.Limiter, func(*gin.Context) {
			if opts.Metrics != nil {
				opts.Metrics.RecordError(handlers.PathUpdateComponent, observability.ErrorCodeRateLimited)
			}
		}),
		handlers.HandleUpdateComponent(opts.Registry, opts.Metrics),
	)
	router.GET(handlers.PathUpdateStream, handlers.HandleUpdateStream(opts.Registry, opts.Metrics, opts.Limiter))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/charts/pie", handlers.HandlePieChart(opts.Table, opts.Metrics))
		v1.GET("/charts/scatter", handlers.HandleScatterChart(opts.Table, opts.Metrics))
		v1.GET("/summary", handlers.HandleSummary(opts.Table))
	}
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
