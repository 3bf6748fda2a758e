// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the dashboard.
//
// # Description
//
// Metrics include:
//   - Callback dispatch counters (by output and status)
//   - Callback latency histograms
//   - Points and slices returned per chart
//   - Size of the loaded dataset
//
// Metrics are exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "launchdash"

// Subsystem for chart callback metrics
const callbackSubsystem = "callback"

// DashboardMetrics holds all Prometheus metrics for the dashboard.
//
// # Fields
//
//   - CallbacksTotal: Callback dispatches by output and status
//   - CallbackDurationSeconds: Time spent computing a chart
//   - ChartElements: Points (scatter) or slices (pie) per response
//   - ErrorsTotal: Rejected or failed requests by endpoint and error code
//   - DatasetRecords: Rows in the loaded table
type DashboardMetrics struct {
	// CallbacksTotal counts callback dispatches.
	// Labels: output (success-pie-chart, ...), status (success, error)
	CallbacksTotal *prometheus.CounterVec

	// CallbackDurationSeconds measures chart computation time.
	// Labels: output
	CallbackDurationSeconds *prometheus.HistogramVec

	// ChartElements observes how many points or slices a chart carried.
	// Labels: chart (pie, scatter)
	ChartElements *prometheus.HistogramVec

	// ErrorsTotal counts errors by endpoint and code.
	// Labels: endpoint, error_code (validation, unknown_output, rate_limited, internal)
	ErrorsTotal *prometheus.CounterVec

	// DatasetRecords is the number of rows loaded at startup.
	DatasetRecords prometheus.Gauge
}

// NewDashboardMetrics creates and registers the metrics on reg.
//
// # Inputs
//
//   - reg: Target registry. Tests pass prometheus.NewRegistry().
//
// # Outputs
//
//   - *DashboardMetrics: The registered metrics.
//
// # Limitations
//
//   - Panics if reg already holds these metrics.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	factory := promauto.With(reg)
	return &DashboardMetrics{
		CallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: callbackSubsystem,
				Name:      "requests_total",
				Help:      "Total number of callback dispatches by output and status",
			},
			[]string{"output", "status"},
		),

		CallbackDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: callbackSubsystem,
				Name:      "duration_seconds",
				Help:      "Time to compute a callback output in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"output"},
		),

		ChartElements: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "chart",
				Name:      "elements",
				Help:      "Points or slices carried by a chart response",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"chart"},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "errors_total",
				Help:      "Total request errors by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),

		DatasetRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "dataset",
				Name:      "records",
				Help:      "Launch records loaded at startup",
			},
		),
	}
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates a malformed or out-of-range request.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeUnknownOutput indicates a dispatch to an unbound output.
	ErrorCodeUnknownOutput ErrorCode = "unknown_output"

	// ErrorCodeRateLimited indicates the request was throttled.
	ErrorCodeRateLimited ErrorCode = "rate_limited"

	// ErrorCodeInternal indicates a server-side failure.
	ErrorCodeInternal ErrorCode = "internal"
)

// Chart names for the ChartElements label.
const (
	ChartPie     = "pie"
	ChartScatter = "scatter"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordCallback records one callback dispatch and its latency.
//
// # Inputs
//
//   - output: A registered output dependency, "id.property", or
//     reactive.UnknownOutputLabel. Never raw client input.
//   - seconds: Time spent in the callback.
//   - success: Whether it returned without error.
func (m *DashboardMetrics) RecordCallback(output string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.CallbacksTotal.WithLabelValues(output, status).Inc()
	m.CallbackDurationSeconds.WithLabelValues(output).Observe(seconds)
}

// RecordChart records the number of elements in a chart response.
func (m *DashboardMetrics) RecordChart(chart string, elements int) {
	m.ChartElements.WithLabelValues(chart).Observe(float64(elements))
}

// RecordError records a request error.
func (m *DashboardMetrics) RecordError(endpoint string, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(endpoint, string(code)).Inc()
}

// SetDatasetRecords publishes the table size.
func (m *DashboardMetrics) SetDatasetRecords(n int) {
	m.DatasetRecords.Set(float64(n))
}
