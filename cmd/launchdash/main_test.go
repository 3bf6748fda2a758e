// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/LaunchDash/pkg/logging"
	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable loadConfig reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LAUNCHDASH_PORT", "LAUNCHDASH_DATASET", "LAUNCHDASH_LOG_LEVEL",
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// =============================================================================
// Config Tests
// =============================================================================

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFileConfig(), cfg)
	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, "none", cfg.TraceExporter)
}

func TestLoadConfig_DefaultFileInWorkingDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, defaultConfigFile), []byte("port: 9100\n"), 0o600))

	cfg, err := loadConfig("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
}

func TestLoadConfig_ExampleFileMatchesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig(filepath.Join("..", "..", "launchdash.example.yaml"), "", 0)
	require.NoError(t, err)

	want := DefaultFileConfig()
	want.Title = "SpaceX Launch Records Dashboard"
	want.Sites = []string{"CCAFS LC-40", "VAFB SLC-4E", "KSC LC-39A", "CCAFS SLC-40"}
	assert.Equal(t, want, cfg)
}

func TestLoadConfig_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cfg.yaml", `
port: 9000
dataset_path: /srv/launches.csv
sites: [KSC LC-39A, VAFB SLC-4E]
title: Launches
log_level: debug
log_json: true
trace_exporter: stdout
rate_limit_rps: 5
rate_limit_burst: 3
`)

	cfg, err := loadConfig(path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/launches.csv", cfg.DatasetPath)
	assert.Equal(t, []string{"KSC LC-39A", "VAFB SLC-4E"}, cfg.Sites)
	assert.Equal(t, "Launches", cfg.Title)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "localhost:4317", cfg.OTelEndpoint, "unset keys keep defaults")
	assert.Equal(t, float64(5), cfg.RateLimitRPS)
	assert.Equal(t, 3, cfg.RateLimitBurst)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "cfg.yaml", "port: 9000\ndataset_path: file.csv\n")
	t.Setenv("LAUNCHDASH_PORT", "9001")
	t.Setenv("LAUNCHDASH_DATASET", "env.csv")
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")

	cfg, err := loadConfig(path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Port)
	assert.Equal(t, "env.csv", cfg.DatasetPath)
	assert.Equal(t, "otlp", cfg.TraceExporter)

	cfg, err = loadConfig(path, "flag.csv", 9002)
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.Port)
	assert.Equal(t, "flag.csv", cfg.DatasetPath)
}

func TestLoadConfig_BadEnvIntIgnored(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("LAUNCHDASH_PORT", "eighty")

	cfg, err := loadConfig("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Port)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "", 0)
	assert.Error(t, err, "explicit missing file")

	_, err = loadConfig(writeFile(t, "bad.yaml", "port: [1, 2"), "", 0)
	assert.Error(t, err, "malformed YAML")

	_, err = loadConfig(writeFile(t, "port.yaml", "port: 70000\n"), "", 0)
	assert.Error(t, err, "port out of range")
}

func TestFileConfig_Conversions(t *testing.T) {
	cfg := DefaultFileConfig()
	cfg.LogLevel = "warn"
	cfg.Sites = []string{"A"}

	svc := cfg.ServiceConfig()
	assert.Equal(t, 8090, svc.Port)
	assert.Equal(t, []string{"A"}, svc.Sites)
	assert.Equal(t, "none", svc.Telemetry.TraceExporter)
	assert.Equal(t, float64(50), svc.RateLimitRPS)

	logCfg, err := cfg.LoggingConfig()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelWarn, logCfg.Level)

	cfg.LogLevel = "loud"
	_, err = cfg.LoggingConfig()
	assert.ErrorIs(t, err, logging.ErrUnknownLevel)
}

// =============================================================================
// Summary Tests
// =============================================================================

func TestSummaryTable(t *testing.T) {
	table, err := dataset.NewTable([]dataset.LaunchRecord{
		{Site: "KSC LC-39A", Class: 1, PayloadMassKg: 5500, BoosterCategory: "B4"},
		{Site: "KSC LC-39A", Class: 0, PayloadMassKg: 3000, BoosterCategory: "FT"},
		{Site: "VAFB SLC-4E", Class: 1, PayloadMassKg: 9600, BoosterCategory: "FT"},
	})
	require.NoError(t, err)

	tbl := summaryTable(table, "test.csv")
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"KSC LC-39A", "2", "1", "1", "50.0%"}, tbl.Rows[0])
	assert.Equal(t, []string{"VAFB SLC-4E", "1", "1", "0", "100.0%"}, tbl.Rows[1])
	require.Len(t, tbl.Footer, 1)
	assert.Equal(t, []string{"ALL", "3", "2", "1", "66.7%"}, tbl.Footer[0])
	assert.Contains(t, tbl.Title, "3000-9600 kg")
}

func TestSummaryCommand_PlainOutput(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	csv := writeFile(t, "launches.csv",
		"Launch Site,class,Payload Mass (kg),Booster Version Category\nCCAFS LC-40,1,500,v1.1\nCCAFS LC-40,0,700,v1.1\n")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"summary", "--dataset", csv})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		datasetFlag = ""
	})

	require.NoError(t, rootCmd.Execute())
	text := out.String()
	assert.Contains(t, text, "CCAFS LC-40")
	assert.Contains(t, text, "50.0%")
	assert.False(t, strings.Contains(text, "\x1b["), "plain output has no escape codes")
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
