// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the dashboard service.
//
// # Endpoints
//
//	GET  /                          rendered page
//	GET  /health                    liveness
//	GET  /_dash-layout              component tree as JSON
//	GET  /_dash-dependencies        callback bindings
//	POST /_dash-update-component    recompute one output
//	GET  /_dash-update-stream       same, over a websocket
//	GET  /v1/charts/pie             pie figure for ?site=
//	GET  /v1/charts/scatter         scatter figure for ?site=&low=&high=
//	GET  /v1/summary                per-site counts
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/LaunchDash/services/dashboard/datatypes"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/AleutianAI/LaunchDash/services/dashboard/middleware"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
	"github.com/AleutianAI/LaunchDash/services/dashboard/telemetry"
	"github.com/gin-gonic/gin"
)

// Endpoint paths, shared with routes and metrics labels.
const (
	PathIndex           = "/"
	PathHealth          = "/health"
	PathLayout          = "/_dash-layout"
	PathDependencies    = "/_dash-dependencies"
	PathUpdateComponent = "/_dash-update-component"
	PathPieChart        = "/v1/charts/pie"
	PathScatterChart    = "/v1/charts/scatter"
	PathSummary         = "/v1/summary"
)

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleIndex serves the pre-rendered dashboard page.
//
// # Inputs
//
//   - html: Output of layout.RenderBytes, rendered once at startup.
func HandleIndex(html []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", html)
	}
}

// HandleLayout serves the component tree.
func HandleLayout(page layout.Page) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, page)
	}
}

// HandleDependencies serves the callback bindings the browser wires up.
func HandleDependencies(reg *reactive.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, reg.Bindings())
	}
}

// HandleUpdateComponent recomputes one output from the submitted inputs.
//
// # Description
//
// Binds the update request, dispatches it through the registry, and maps
// registry errors to status codes:
//
//	ErrUnknownOutput                 → 404
//	ErrMissingInput, ErrInvalidInput → 400
//	anything else                    → 500
//
// # Inputs
//
//   - reg: Registry holding the dashboard callbacks.
//   - m: Metrics sink. May be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Writes {"response": {id: {figure: ...}}} on success.
func HandleUpdateComponent(reg *reactive.Registry, m *observability.DashboardMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reactive.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			requestLogger(c).Warn("Rejected update request", "error", err)
			if m != nil {
				m.RecordError(PathUpdateComponent, observability.ErrorCodeValidation)
			}
			abortWithError(c, http.StatusBadRequest, "invalid update request")
			return
		}

		start := time.Now()
		resp, err := reg.Dispatch(c.Request.Context(), req)
		if m != nil {
			m.RecordCallback(reg.OutputLabel(req.Output), time.Since(start).Seconds(), err == nil)
		}
		if err != nil {
			status, code := classifyDispatchError(err)
			if m != nil {
				m.RecordError(PathUpdateComponent, code)
			}
			if status == http.StatusInternalServerError {
				requestLogger(c).Error("Callback failed", "output", req.Output, "error", err)
				abortWithError(c, status, "callback failed")
				return
			}
			requestLogger(c).Warn("Callback rejected input", "output", req.Output, "error", err)
			abortWithError(c, status, err.Error())
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// classifyDispatchError maps a registry error to an HTTP status and a
// metrics error code.
func classifyDispatchError(err error) (int, observability.ErrorCode) {
	switch {
	case errors.Is(err, reactive.ErrUnknownOutput):
		return http.StatusNotFound, observability.ErrorCodeUnknownOutput
	case errors.Is(err, reactive.ErrMissingInput), errors.Is(err, reactive.ErrInvalidInput):
		return http.StatusBadRequest, observability.ErrorCodeValidation
	default:
		return http.StatusInternalServerError, observability.ErrorCodeInternal
	}
}

// requestLogger returns the default logger annotated with the request id and
// the trace and span ids otelgin put on the request context.
func requestLogger(c *gin.Context) *slog.Logger {
	return telemetry.LoggerWithTrace(c.Request.Context(), slog.Default()).
		With("request_id", middleware.GetRequestID(c))
}

// abortWithError writes an ErrorResponse carrying the request id.
func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, datatypes.ErrorResponse{
		Error:     msg,
		RequestID: middleware.GetRequestID(c),
	})
}
