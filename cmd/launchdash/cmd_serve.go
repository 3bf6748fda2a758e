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
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/LaunchDash/pkg/logging"
	"github.com/AleutianAI/LaunchDash/services/dashboard"
	"github.com/spf13/cobra"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath, datasetFlag, portFlag)
	if err != nil {
		return err
	}
	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	logger := logging.New(logCfg)
	defer logger.Close()
	logger.Install()

	logger.Info("Starting launchdash",
		"version", version,
		"port", cfg.Port,
		"dataset", cfg.DatasetPath,
		"trace_exporter", cfg.TraceExporter)

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := dashboard.New(ctx, cfg.ServiceConfig())
	if err != nil {
		logger.Error("Failed to create dashboard", "error", err)
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	if err := svc.Run(ctx); err != nil {
		logger.Error("Dashboard stopped with error", "error", err)
		return err
	}
	logger.Info("Dashboard stopped")
	return nil
}

// contextOrBackground guards cobra commands executed without ExecuteContext.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
