// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"net/http"

	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/AleutianAI/LaunchDash/services/dashboard/datatypes"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/gin-gonic/gin"
)

// =============================================================================
// REST Chart Handlers
// =============================================================================

// HandlePieChart serves the pie figure for ?site=.
//
// # Inputs
//
//   - table: Read-only launch table.
//   - m: Metrics sink. May be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: 200 with a plotly figure, 400 for an invalid site.
//
// # Examples
//
//	GET /v1/charts/pie                  → all sites
//	GET /v1/charts/pie?site=KSC+LC-39A  → success vs failure for KSC LC-39A
func HandlePieChart(table *dataset.Table, m *observability.DashboardMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := datatypes.NewPieQuery()
		if err := c.ShouldBindQuery(&q); err != nil {
			rejectQuery(c, m, PathPieChart, err)
			return
		}
		if err := q.Validate(); err != nil {
			rejectQuery(c, m, PathPieChart, err)
			return
		}

		pie := charts.Pie(table, q.Site)
		if m != nil {
			m.RecordChart(observability.ChartPie, len(pie.Slices))
		}
		c.JSON(http.StatusOK, pie.Figure())
	}
}

// HandleScatterChart serves the scatter figure for ?site=&low=&high=.
//
// # Description
//
// Missing bounds default to the table's payload range clamped to the slider
// bounds, matching the slider's initial position.
//
// # Outputs
//
//   - gin.HandlerFunc: 200 with a plotly figure, 400 when a bound is not a
//     number, lies outside [0, 10000], or low > high.
func HandleScatterChart(table *dataset.Table, m *observability.DashboardMetrics) gin.HandlerFunc {
	initial := charts.SliderRange(table.PayloadMin(), table.PayloadMax())

	return func(c *gin.Context) {
		q := datatypes.NewScatterQuery(initial.Low, initial.High)
		if err := c.ShouldBindQuery(&q); err != nil {
			rejectQuery(c, m, PathScatterChart, err)
			return
		}
		if err := q.Validate(); err != nil {
			rejectQuery(c, m, PathScatterChart, err)
			return
		}

		scatter := charts.Scatter(table, q.Site, q.Range())
		if m != nil {
			m.RecordChart(observability.ChartScatter, len(scatter.Points))
		}
		c.JSON(http.StatusOK, scatter.Figure())
	}
}

// HandleSummary serves per-site launch counts.
func HandleSummary(table *dataset.Table) gin.HandlerFunc {
	resp := datatypes.SummaryResponse{
		Sites:      charts.Summarize(table),
		PayloadMin: table.PayloadMin(),
		PayloadMax: table.PayloadMax(),
		Records:    table.Len(),
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}

func rejectQuery(c *gin.Context, m *observability.DashboardMetrics, endpoint string, err error) {
	requestLogger(c).Warn("Rejected chart query", "endpoint", endpoint, "query", c.Request.URL.RawQuery,
		"error", err)
	if m != nil {
		m.RecordError(endpoint, observability.ErrorCodeValidation)
	}
	abortWithError(c, http.StatusBadRequest, err.Error())
}
