// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command launchdash serves the SpaceX launch records dashboard.
//
//	launchdash                     serve with defaults (port 8090)
//	launchdash serve --port 9000   serve on another port
//	launchdash summary             print per-site launch counts
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	datasetFlag string
	portFlag    int

	rootCmd = &cobra.Command{
		Use:   "launchdash",
		Short: "Interactive dashboard of SpaceX launch records",
		Long: `launchdash loads a CSV of launch records and serves a page with a
launch-site dropdown, a payload range slider, a success pie chart and a
payload/outcome scatter chart. Running it without a subcommand serves.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Print per-site launch success counts",
		Args:  cobra.NoArgs,
		RunE:  runSummary,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML config file (default: ./launchdash.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&datasetFlag, "dataset", "",
		"Path to the launch CSV (overrides config and LAUNCHDASH_DATASET)")

	for _, c := range []*cobra.Command{rootCmd, serveCmd} {
		c.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (overrides config and LAUNCHDASH_PORT)")
	}

	rootCmd.AddCommand(serveCmd, summaryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
