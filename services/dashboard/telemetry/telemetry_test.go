// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "")
	t.Setenv("OTEL_METRICS_EXPORTER", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg := DefaultConfig()

	if cfg.ServiceName != "launchdash" {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, "launchdash")
	}
	if cfg.TraceExporter != ExporterNone {
		t.Errorf("TraceExporter = %q, want %q", cfg.TraceExporter, ExporterNone)
	}
	if cfg.MetricExporter != ExporterPrometheus {
		t.Errorf("MetricExporter = %q, want %q", cfg.MetricExporter, ExporterPrometheus)
	}
	if cfg.OTLPEndpoint != "localhost:4317" {
		t.Errorf("OTLPEndpoint = %q, want %q", cfg.OTLPEndpoint, "localhost:4317")
	}
}

func TestDefaultConfig_EnvOverride(t *testing.T) {
	t.Setenv("OTEL_TRACES_EXPORTER", "stdout")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	cfg := DefaultConfig()

	if cfg.TraceExporter != "stdout" {
		t.Errorf("TraceExporter = %q, want stdout", cfg.TraceExporter)
	}
	if cfg.OTLPEndpoint != "collector:4317" {
		t.Errorf("OTLPEndpoint = %q, want collector:4317", cfg.OTLPEndpoint)
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil guard
	_, err := Init(nil, Config{TraceExporter: ExporterNone, MetricExporter: ExporterNone})
	if !errors.Is(err, ErrNilContext) {
		t.Errorf("Init(nil, cfg) error = %v, want %v", err, ErrNilContext)
	}
}

func TestInit_NoopExporters(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "test",
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestInit_StdoutTraceExporter(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "test",
		TraceExporter:  ExporterStdout,
		MetricExporter: ExporterNone,
		Writer:         &buf,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "render-pie")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), "render-pie") {
		t.Errorf("stdout exporter output missing span name: %s", buf.String())
	}
}

func TestInit_PrometheusMetricExporter(t *testing.T) {
	reg := prometheus.NewRegistry()
	shutdown, err := Init(context.Background(), Config{
		ServiceName:    "test",
		TraceExporter:  ExporterNone,
		MetricExporter: ExporterPrometheus,
		Registerer:     reg,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer shutdown(context.Background())

	counter, err := otel.Meter("test").Int64Counter("launchdash_test_events")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	counter.Add(context.Background(), 3, metric.WithAttributes())

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "launchdash_test_events") {
			found = true
		}
	}
	if !found {
		t.Error("prometheus registry missing otel counter")
	}
}

func TestInit_UnknownExporter(t *testing.T) {
	tests := []Config{
		{TraceExporter: "jaeger-thrift", MetricExporter: ExporterNone},
		{TraceExporter: ExporterNone, MetricExporter: "statsd"},
	}
	for _, cfg := range tests {
		_, err := Init(context.Background(), cfg)
		if !errors.Is(err, ErrUnknownExporter) {
			t.Errorf("Init(%+v) error = %v, want ErrUnknownExporter", cfg, err)
		}
	}
}

func TestLoggerWithTrace_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	LoggerWithTrace(context.Background(), logger).Info("test message")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("output should not contain trace_id when no span: %s", buf.String())
	}
}

func TestLoggerWithTrace_NilLogger(t *testing.T) {
	if LoggerWithTrace(context.Background(), nil) == nil {
		t.Error("result should not be nil")
	}
}

func TestLoggerWithTrace_WithSpan(t *testing.T) {
	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var buf bytes.Buffer
	LoggerWithTrace(ctx, slog.New(slog.NewJSONHandler(&buf, nil))).Info("test message")

	out := buf.String()
	if !strings.Contains(out, traceID.String()) {
		t.Errorf("output should contain trace ID: %s", out)
	}
	if !strings.Contains(out, spanID.String()) {
		t.Errorf("output should contain span ID: %s", out)
	}
}
