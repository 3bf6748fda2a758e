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
	"context"
	"fmt"

	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
	"github.com/AleutianAI/LaunchDash/services/dashboard/datatypes"
	"github.com/AleutianAI/LaunchDash/services/dashboard/layout"
	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
)

// =============================================================================
// Callback Registration
// =============================================================================

// RegisterCallbacks binds the two dashboard graphs to their inputs.
//
// # Description
//
//	site-dropdown.value ──────────────┬──► success-pie-chart.figure
//	                                  │
//	payload-slider.value ─────────────┴──► success-payload-scatter-chart.figure
//
// # Inputs
//
//   - reg: Target registry.
//   - table: Read-only launch table shared by every request.
//   - m: Metrics sink. May be nil.
//
// # Outputs
//
//   - error: ErrDuplicateOutput if the graphs are already bound.
func RegisterCallbacks(reg *reactive.Registry, table *dataset.Table, m *observability.DashboardMetrics) error {
	if err := reg.Register(reactive.Callback{
		Output: reactive.Output(layout.PieChartID),
		Inputs: []reactive.Dependency{reactive.Input(layout.SiteDropdownID)},
		Fn:     PieCallback(table, m),
	}); err != nil {
		return err
	}
	return reg.Register(reactive.Callback{
		Output: reactive.Output(layout.ScatterChartID),
		Inputs: []reactive.Dependency{
			reactive.Input(layout.SiteDropdownID),
			reactive.Input(layout.PayloadSliderID),
		},
		Fn: ScatterCallback(table, m),
	})
}

// PieCallback recomputes the pie figure from the dropdown value.
//
// # Assumptions
//
//   - A null dropdown value (cleared selection) is treated as an empty site
//     and yields a chart with zero-valued slices.
func PieCallback(table *dataset.Table, m *observability.DashboardMetrics) reactive.Func {
	return func(_ context.Context, in reactive.Values) (any, error) {
		site, err := in.String(layout.SiteDropdownID)
		if err != nil {
			return nil, err
		}
		q := datatypes.PieQuery{Site: site}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", reactive.ErrInvalidInput, layout.SiteDropdownID, err)
		}

		pie := charts.Pie(table, q.Site)
		if m != nil {
			m.RecordChart(observability.ChartPie, len(pie.Slices))
		}
		return pie.Figure(), nil
	}
}

// ScatterCallback recomputes the scatter figure from the dropdown and the
// slider.
//
// # Description
//
// The slider value is a two-element array [low, high]. A null slider value
// means the full slider range.
//
// # Outputs
//
//   - error: ErrInvalidInput for a slider value that is not two numbers,
//     lies outside [SliderMin, SliderMax], or has low > high.
func ScatterCallback(table *dataset.Table, m *observability.DashboardMetrics) reactive.Func {
	return func(_ context.Context, in reactive.Values) (any, error) {
		site, err := in.String(layout.SiteDropdownID)
		if err != nil {
			return nil, err
		}

		var bounds []float64
		if err := in.Decode(layout.PayloadSliderID, &bounds); err != nil {
			return nil, err
		}
		if bounds == nil {
			bounds = []float64{charts.SliderMin, charts.SliderMax}
		}
		if len(bounds) != 2 {
			return nil, fmt.Errorf("%w: %s: want [low, high], got %d values",
				reactive.ErrInvalidInput, layout.PayloadSliderID, len(bounds))
		}

		q := datatypes.ScatterQuery{Site: site, Low: bounds[0], High: bounds[1]}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", reactive.ErrInvalidInput, layout.PayloadSliderID, err)
		}

		scatter := charts.Scatter(table, q.Site, q.Range())
		if m != nil {
			m.RecordChart(observability.ChartScatter, len(scatter.Points))
		}
		return scatter.Figure(), nil
	}
}
