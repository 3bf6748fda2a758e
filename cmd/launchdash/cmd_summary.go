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
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/AleutianAI/LaunchDash/pkg/ux"
	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath, datasetFlag, 0)
	if err != nil {
		return err
	}
	table, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return summaryTable(table, cfg.DatasetPath).Render(out, isTerminal(out))
}

// summaryTable lays out charts.Summarize as a table with the totals row
// as footer.
func summaryTable(table *dataset.Table, source string) ux.Table {
	rows := charts.Summarize(table)
	t := ux.Table{
		Title:      fmt.Sprintf("Launch outcomes by site (%s, payload %.0f-%.0f kg)", source, table.PayloadMin(), table.PayloadMax()),
		Headers:    []string{"Launch Site", "Launches", "Success", "Failure", "Success Rate"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, s := range rows {
		cells := []string{
			s.Site,
			strconv.Itoa(s.Launches),
			strconv.Itoa(s.Successes),
			strconv.Itoa(s.Failures),
			fmt.Sprintf("%.1f%%", 100*s.Rate),
		}
		if s.Site == charts.AllSites {
			t.Footer = append(t.Footer, cells)
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
