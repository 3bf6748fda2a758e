// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testCSV = `Flight Number,Launch Site,class,Payload Mass (kg),Booster Version,Booster Version Category
1,CCAFS LC-40,0,0.0,F9 v1.0  B0003,v1.0
2,KSC LC-39A,1,5500.0,F9 FT B1031.1,FT
3,KSC LC-39A,0,3000.0,F9 FT B1030,FT
4,Starbase,1,9000.0,F9 B5 B1050,B5
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "launches.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	if cfg.DatasetPath == "" {
		cfg.DatasetPath = writeCSV(t, testCSV)
	}
	svc, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return svc
}

// =============================================================================
// Config Tests
// =============================================================================

func TestApplyConfigDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDatasetPath, cfg.DatasetPath)
	assert.Equal(t, layout.DefaultTitle, cfg.Title)
	assert.Equal(t, layout.DefaultSites, cfg.Sites)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "none", cfg.Telemetry.MetricExporter)
}

func TestApplyConfigDefaults_KeepsOverrides(t *testing.T) {
	cfg := applyConfigDefaults(Config{Port: 9000, Sites: []string{"A"}, RateLimitRPS: 5})

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"A"}, cfg.Sites)
	assert.Equal(t, float64(5), cfg.RateLimitRPS)
}

// =============================================================================
// New Tests
// =============================================================================

func TestNew_LoadsDataset(t *testing.T) {
	svc := newTestService(t, Config{})

	assert.Equal(t, 4, svc.Table().Len())
	assert.Equal(t, float64(9000), svc.Table().PayloadMax())
}

func TestNew_BundledDataset(t *testing.T) {
	svc := newTestService(t, Config{DatasetPath: filepath.Join("..", "..", DefaultDatasetPath)})
	assert.Equal(t, 56, svc.Table().Len())
}

func TestNew_MissingDataset(t *testing.T) {
	_, err := New(context.Background(), Config{DatasetPath: filepath.Join(t.TempDir(), "nope.csv")})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew_InvalidOutcome(t *testing.T) {
	path := writeCSV(t, "Launch Site,class,Payload Mass (kg),Booster Version Category\nCCAFS LC-40,2,100,FT\n")

	_, err := New(context.Background(), Config{DatasetPath: path})
	assert.ErrorIs(t, err, dataset.ErrInvalidOutcome)
}

func TestNew_UnknownTraceExporter(t *testing.T) {
	cfg := Config{DatasetPath: writeCSV(t, testCSV)}
	cfg.Telemetry.TraceExporter = "carrier-pigeon"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

// =============================================================================
// Router Tests
// =============================================================================

func TestRouter_ServesDashboard(t *testing.T) {
	svc := newTestService(t, Config{Title: "Launch Board"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	svc.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Launch Board</title>")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_UpdateComponent(t *testing.T) {
	svc := newTestService(t, Config{})
	body := `{"output":"success-payload-scatter-chart.figure","inputs":[` +
		`{"id":"site-dropdown","property":"value","value":"KSC LC-39A"},` +
		`{"id":"payload-slider","property":"value","value":[3000,3000]}]}`

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/_dash-update-component", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	svc.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Response map[string]map[string]struct {
			Data []struct {
				X []float64 `json:"x"`
				Y []int     `json:"y"`
			} `json:"data"`
		} `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Response["success-payload-scatter-chart"]["figure"].Data
	require.Len(t, data, 1)
	assert.Equal(t, []float64{3000}, data[0].X)
	assert.Equal(t, []int{0}, data[0].Y)
}

func TestRouter_MetricsIncludeDatasetGauge(t *testing.T) {
	svc := newTestService(t, Config{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	svc.Router().ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "launchdash_dataset_records 4")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

// =============================================================================
// Run Tests
// =============================================================================

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestRun_GracefulShutdown(t *testing.T) {
	port := freePort(t)
	svc := newTestService(t, Config{Host: "127.0.0.1", Port: port})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_PortInUse(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	svc := newTestService(t, Config{Host: "127.0.0.1", Port: port})
	err = svc.Run(context.Background())
	assert.Error(t, err)
}
