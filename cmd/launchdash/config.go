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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/AleutianAI/LaunchDash/pkg/logging"
	"github.com/AleutianAI/LaunchDash/services/dashboard"
	"github.com/AleutianAI/LaunchDash/services/dashboard/telemetry"
	"gopkg.in/yaml.v3"
)

// defaultConfigFile is read from the working directory when --config is
// not given. Its absence is not an error.
const defaultConfigFile = "launchdash.yaml"

// FileConfig is the YAML configuration. Every field is optional.
type FileConfig struct {
	Port           int      `yaml:"port"`
	DatasetPath    string   `yaml:"dataset_path"`
	Sites          []string `yaml:"sites"`
	Title          string   `yaml:"title"`
	LogLevel       string   `yaml:"log_level"`
	LogJSON        bool     `yaml:"log_json"`
	LogDir         string   `yaml:"log_dir"`
	TraceExporter  string   `yaml:"trace_exporter"`
	MetricExporter string   `yaml:"metric_exporter"`
	OTelEndpoint   string   `yaml:"otel_endpoint"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// DefaultFileConfig returns the configuration used when nothing overrides it.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Port:           dashboard.DefaultPort,
		DatasetPath:    dashboard.DefaultDatasetPath,
		LogLevel:       "info",
		TraceExporter:  telemetry.ExporterNone,
		MetricExporter: telemetry.ExporterPrometheus,
		OTelEndpoint:   "localhost:4317",
		RateLimitRPS:   50,
		RateLimitBurst: 20,
	}
}

// loadConfig resolves configuration with precedence
// defaults < YAML file < environment < flags.
//
// # Inputs
//
//   - path: Explicit config file. Empty means defaultConfigFile if present.
//   - dataset, port: Flag values. Zero values are ignored.
//
// # Outputs
//
//   - FileConfig: Resolved configuration.
//   - error: Unreadable or malformed YAML, or a missing explicit file.
func loadConfig(path, dataset string, port int) (FileConfig, error) {
	cfg := DefaultFileConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return FileConfig{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return FileConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.Port = getEnvInt("LAUNCHDASH_PORT", cfg.Port)
	cfg.DatasetPath = getEnvString("LAUNCHDASH_DATASET", cfg.DatasetPath)
	cfg.LogLevel = getEnvString("LAUNCHDASH_LOG_LEVEL", cfg.LogLevel)
	cfg.TraceExporter = getEnvString("OTEL_TRACES_EXPORTER", cfg.TraceExporter)
	cfg.MetricExporter = getEnvString("OTEL_METRICS_EXPORTER", cfg.MetricExporter)
	cfg.OTelEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTelEndpoint)

	if dataset != "" {
		cfg.DatasetPath = dataset
	}
	if port != 0 {
		cfg.Port = port
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return FileConfig{}, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return cfg, nil
}

// ServiceConfig converts to the dashboard service configuration.
func (c FileConfig) ServiceConfig() dashboard.Config {
	return dashboard.Config{
		Port:           c.Port,
		DatasetPath:    c.DatasetPath,
		Title:          c.Title,
		Sites:          c.Sites,
		GinMode:        "release",
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,
		Telemetry: telemetry.Config{
			ServiceName:    "launchdash",
			ServiceVersion: version,
			TraceExporter:  c.TraceExporter,
			MetricExporter: c.MetricExporter,
			OTLPEndpoint:   c.OTelEndpoint,
		},
	}
}

// LoggingConfig converts to the logger configuration.
func (c FileConfig) LoggingConfig() (logging.Config, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		Level:   level,
		LogDir:  c.LogDir,
		Service: "launchdash",
		JSON:    c.LogJSON,
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
