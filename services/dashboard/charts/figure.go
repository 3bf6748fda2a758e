// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package charts

import (
	"fmt"

	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
)

// =============================================================================
// Plotly Figure Types
// =============================================================================

// Figure is a plotly figure: what Plotly.react consumes in the browser.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is a subset of the plotly trace schema covering pie and scatter.
type Trace struct {
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Values      []float64 `json:"values,omitempty"`
	X           []float64 `json:"x,omitempty"`
	Y           []int     `json:"y,omitempty"`
	Text        []string  `json:"text,omitempty"`
	Mode        string    `json:"mode,omitempty"`
	LegendGroup string    `json:"legendgroup,omitempty"`
	Marker      *Marker   `json:"marker,omitempty"`
	// HoverTemplate uses plotly's %{...} syntax.
	HoverTemplate string `json:"hovertemplate,omitempty"`
}

// Marker styles scatter markers.
type Marker struct {
	Color  string `json:"color,omitempty"`
	Size   int    `json:"size,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

// Layout is the figure layout.
type Layout struct {
	Title      Title   `json:"title"`
	XAxis      *Axis   `json:"xaxis,omitempty"`
	YAxis      *Axis   `json:"yaxis,omitempty"`
	Legend     *Legend `json:"legend,omitempty"`
	ShowLegend bool    `json:"showlegend"`
}

// Title is a plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Legend is a plotly legend object.
type Legend struct {
	Title Title `json:"title"`
}

// Axis is a plotly axis object.
type Axis struct {
	Title    Title     `json:"title"`
	Range    []float64 `json:"range,omitempty"`
	TickVals []float64 `json:"tickvals,omitempty"`
}

// categoryPalette follows plotly's default qualitative sequence.
var categoryPalette = []string{
	"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A",
	"#19d3f3", "#FF6692", "#B6E880", "#FF97FF", "#FECB52",
}

// =============================================================================
// Conversion
// =============================================================================

// Figure converts the pie result into a single pie trace.
func (p PieChart) Figure() Figure {
	labels := make([]string, len(p.Slices))
	values := make([]float64, len(p.Slices))
	for i, s := range p.Slices {
		labels[i] = s.Label
		values[i] = s.Value
	}
	return Figure{
		Data: []Trace{{
			Type:   "pie",
			Labels: labels,
			Values: values,
		}},
		Layout: Layout{
			Title:      Title{Text: p.Title},
			ShowLegend: true,
		},
	}
}

// Figure converts the scatter result into one marker trace per booster
// category, in first-appearance order. No points means no traces; the
// layout still carries the title and axes so the chart renders empty.
func (s ScatterChart) Figure() Figure {
	fig := Figure{
		Data: []Trace{},
		Layout: Layout{
			Title:      Title{Text: s.Title},
			XAxis:      &Axis{Title: Title{Text: dataset.ColumnPayloadMass}},
			YAxis:      &Axis{Title: Title{Text: dataset.ColumnClass}, TickVals: []float64{0, 1}},
			Legend:     &Legend{Title: Title{Text: dataset.ColumnBoosterCategory}},
			ShowLegend: true,
		},
	}

	for i, cat := range s.Categories() {
		trace := Trace{
			Type:          "scatter",
			Mode:          "markers",
			Name:          cat,
			LegendGroup:   cat,
			Marker:        &Marker{Color: categoryPalette[i%len(categoryPalette)]},
			HoverTemplate: fmt.Sprintf("%s=%s<br>%%{text}<br>payload=%%{x} kg<br>class=%%{y}<extra></extra>", dataset.ColumnBoosterCategory, cat),
		}
		for _, p := range s.Points {
			if p.BoosterCategory != cat {
				continue
			}
			trace.X = append(trace.X, p.PayloadMassKg)
			trace.Y = append(trace.Y, p.Class)
			trace.Text = append(trace.Text, p.Site)
		}
		fig.Data = append(fig.Data, trace)
	}
	return fig
}
