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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type streamEnv struct {
	server  *httptest.Server
	metrics *observability.DashboardMetrics
}

func newStreamEnv(t *testing.T, limiter *rate.Limiter) *streamEnv {
	t.Helper()
	m := observability.NewDashboardMetrics(prometheus.NewRegistry())
	reg := reactive.NewRegistry()
	require.NoError(t, RegisterCallbacks(reg, fixtureTable(t), m))

	router := gin.New()
	router.GET(PathUpdateStream, HandleUpdateStream(reg, m, limiter))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &streamEnv{server: srv, metrics: m}
}

func (e *streamEnv) url() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + PathUpdateStream
}

func (e *streamEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(e.url(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

type testFrame struct {
	Output   string                                `json:"output"`
	Status   int                                   `json:"status"`
	Response map[string]map[string]json.RawMessage `json:"response"`
	Error    string                                `json:"error"`
}

func roundTrip(t *testing.T, ws *websocket.Conn, msg any) testFrame {
	t.Helper()
	switch m := msg.(type) {
	case string:
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(m)))
	default:
		require.NoError(t, ws.WriteJSON(m))
	}
	var frame testFrame
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func pieRequest(site any) map[string]any {
	return map[string]any{
		"output": layout.PieChartID + ".figure",
		"inputs": []any{input(layout.SiteDropdownID, site)},
	}
}

// =============================================================================
// Update Stream Tests
// =============================================================================

func TestUpdateStream_DispatchesInOrder(t *testing.T) {
	env := newStreamEnv(t, nil)
	ws := env.dial(t)

	frame := roundTrip(t, ws, pieRequest("ALL"))
	require.Equal(t, http.StatusOK, frame.Status)
	assert.Equal(t, layout.PieChartID+".figure", frame.Output)
	assert.Empty(t, frame.Error)

	var fig charts.Figure
	require.NoError(t, json.Unmarshal(frame.Response[layout.PieChartID]["figure"], &fig))
	require.Len(t, fig.Data, 1)

	frame = roundTrip(t, ws, map[string]any{
		"output": layout.ScatterChartID + ".figure",
		"inputs": []any{
			input(layout.SiteDropdownID, "KSC LC-39A"),
			input(layout.PayloadSliderID, []float64{0, 10000}),
		},
	})
	require.Equal(t, http.StatusOK, frame.Status)
	assert.Contains(t, frame.Response, layout.ScatterChartID)

	got := testutil.ToFloat64(env.metrics.CallbacksTotal.WithLabelValues(layout.PieChartID+".figure", "success"))
	assert.Equal(t, float64(1), got)
}

func TestUpdateStream_BadFrameKeepsConnection(t *testing.T) {
	env := newStreamEnv(t, nil)
	ws := env.dial(t)

	frame := roundTrip(t, ws, "{not json")
	assert.Equal(t, http.StatusBadRequest, frame.Status)
	assert.Equal(t, "invalid update request", frame.Error)

	frame = roundTrip(t, ws, map[string]any{"inputs": []any{}})
	assert.Equal(t, http.StatusBadRequest, frame.Status)

	frame = roundTrip(t, ws, pieRequest("KSC LC-39A"))
	assert.Equal(t, http.StatusOK, frame.Status)

	got := testutil.ToFloat64(env.metrics.ErrorsTotal.WithLabelValues(PathUpdateStream, "validation"))
	assert.Equal(t, float64(2), got)
}

func TestUpdateStream_DispatchErrors(t *testing.T) {
	env := newStreamEnv(t, nil)
	ws := env.dial(t)

	frame := roundTrip(t, ws, map[string]any{"output": "nope.figure", "inputs": []any{}})
	assert.Equal(t, http.StatusNotFound, frame.Status)
	assert.Equal(t, "nope.figure", frame.Output)

	frame = roundTrip(t, ws, map[string]any{"output": layout.PieChartID + ".figure", "inputs": []any{}})
	assert.Equal(t, http.StatusBadRequest, frame.Status)
	assert.Contains(t, frame.Error, layout.SiteDropdownID)

	frame = roundTrip(t, ws, pieRequest(42))
	assert.Equal(t, http.StatusBadRequest, frame.Status)

	got := testutil.ToFloat64(env.metrics.CallbacksTotal.WithLabelValues(reactive.UnknownOutputLabel, "error"))
	assert.Equal(t, float64(1), got)
	assert.Equal(t, 2, testutil.CollectAndCount(env.metrics.CallbacksTotal))
}

func TestUpdateStream_OversizedMessageClosesConnection(t *testing.T) {
	env := newStreamEnv(t, nil)
	ws := env.dial(t)

	big := pieRequest(strings.Repeat("x", 2*MaxStreamMessageBytes))
	require.NoError(t, ws.WriteJSON(big))

	var frame testFrame
	err := ws.ReadJSON(&frame)
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig), "got %v", err)
}

func TestUpdateStream_RateLimited(t *testing.T) {
	env := newStreamEnv(t, rate.NewLimiter(0, 1))
	ws := env.dial(t)

	assert.Equal(t, http.StatusOK, roundTrip(t, ws, pieRequest("ALL")).Status)

	frame := roundTrip(t, ws, pieRequest("ALL"))
	assert.Equal(t, http.StatusTooManyRequests, frame.Status)
	assert.Equal(t, "rate limit exceeded", frame.Error)

	got := testutil.ToFloat64(env.metrics.ErrorsTotal.WithLabelValues(PathUpdateStream, "rate_limited"))
	assert.Equal(t, float64(1), got)
}

func TestUpdateStream_RejectsCrossOrigin(t *testing.T) {
	env := newStreamEnv(t, nil)

	header := http.Header{"Origin": []string{"http://elsewhere.example"}}
	ws, resp, err := websocket.DefaultDialer.Dial(env.url(), header)
	if ws != nil {
		ws.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateStream_PlainGetIsRejected(t *testing.T) {
	env := newStreamEnv(t, nil)

	resp, err := http.Get(env.server.URL + PathUpdateStream)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
