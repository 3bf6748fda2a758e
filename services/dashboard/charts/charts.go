// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package charts turns the launch table and the current control values into
// chart descriptions.
//
// # Description
//
// Pie and Scatter are pure functions of (table, control values). They never
// return an error: a site that matches nothing produces a degenerate chart.
// Each result converts to a plotly figure through its Figure method.
//
// # Thread Safety
//
// All functions are safe for concurrent use. The table is read-only.
package charts

import (
	"math"

	"github.com/AleutianAI/LaunchDash/services/dashboard/dataset"
)

// AllSites is the dropdown sentinel that selects every launch site.
const AllSites = "ALL"

// Slice labels for a single-site pie.
const (
	LabelSuccess = "Success"
	LabelFailure = "Failure"
)

// =============================================================================
// Pie
// =============================================================================

// Slice is one pie segment.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieChart is the result of the pie selection.
type PieChart struct {
	Site   string  `json:"site"`
	Title  string  `json:"title"`
	Slices []Slice `json:"slices"`
}

// Total returns the sum of all slice values.
func (p PieChart) Total() float64 {
	var total float64
	for _, s := range p.Slices {
		total += s.Value
	}
	return total
}

// Pie selects the success pie for a site.
//
// # Description
//
// For AllSites, emits one slice per site in first-appearance order, sized by
// the sum of the outcome class over that site. Because class is validated
// to be 0 or 1 at load time, that sum is the success count.
//
// For a specific site, keeps rows whose site equals the selection exactly and
// emits two slices, Success then Failure, each sized by row count. Both
// slices are always present, so an unknown site yields two zero slices.
//
// # Inputs
//
//   - table: The launch table. Must not be nil.
//   - site: AllSites or an exact site name. No normalization is applied.
//
// # Outputs
//
//   - PieChart: The chart. Never fails.
func Pie(table *dataset.Table, site string) PieChart {
	if site == AllSites {
		return pieAllSites(table)
	}

	var success, failure float64
	table.Each(func(r dataset.LaunchRecord) {
		if r.Site != site {
			return
		}
		if r.Succeeded() {
			success++
		} else {
			failure++
		}
	})

	return PieChart{
		Site:  site,
		Title: "Success vs. Failure Launches for " + site,
		Slices: []Slice{
			{Label: LabelSuccess, Value: success},
			{Label: LabelFailure, Value: failure},
		},
	}
}

func pieAllSites(table *dataset.Table) PieChart {
	sites := table.Sites()
	sums := make(map[string]float64, len(sites))
	table.Each(func(r dataset.LaunchRecord) {
		sums[r.Site] += float64(r.Class)
	})

	slices := make([]Slice, 0, len(sites))
	for _, s := range sites {
		slices = append(slices, Slice{Label: s, Value: sums[s]})
	}
	return PieChart{
		Site:   AllSites,
		Title:  "Total Success Launches By Site",
		Slices: slices,
	}
}

// =============================================================================
// Scatter
// =============================================================================

// Payload slider bounds.
const (
	SliderMin  = 0
	SliderMax  = 10000
	SliderStep = 1000
)

// PayloadRange is an inclusive payload mass interval in kilograms.
//
// A range with Low > High is empty.
type PayloadRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether Low <= mass <= High.
func (r PayloadRange) Contains(mass float64) bool {
	return mass >= r.Low && mass <= r.High
}

// SliderRange clamps both ends of [low, high] into the slider bounds. It is
// the slider's initial value and the REST scatter default.
func SliderRange(low, high float64) PayloadRange {
	clamp := func(v float64) float64 {
		return math.Min(math.Max(v, SliderMin), SliderMax)
	}
	return PayloadRange{Low: clamp(low), High: clamp(high)}
}

// Point is one scatter marker.
type Point struct {
	PayloadMassKg   float64 `json:"payload_mass_kg"`
	Class           int     `json:"class"`
	Site            string  `json:"launch_site"`
	BoosterVersion  string  `json:"booster_version,omitempty"`
	BoosterCategory string  `json:"booster_version_category"`
}

// ScatterChart is the result of the scatter selection.
type ScatterChart struct {
	Site   string       `json:"site"`
	Title  string       `json:"title"`
	Range  PayloadRange `json:"range"`
	Points []Point      `json:"points"`
}

// Categories returns the booster categories present, in first-appearance order.
func (s ScatterChart) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, p := range s.Points {
		if !seen[p.BoosterCategory] {
			seen[p.BoosterCategory] = true
			cats = append(cats, p.BoosterCategory)
		}
	}
	return cats
}

// Scatter selects payload vs. outcome points.
//
// # Description
//
// Keeps rows with payload inside the inclusive range, then, unless site is
// AllSites, rows whose site equals the selection. Points keep file order.
//
// # Inputs
//
//   - table: The launch table. Must not be nil.
//   - site: AllSites or an exact site name.
//   - rng: Inclusive payload range. Low > High selects nothing.
//
// # Outputs
//
//   - ScatterChart: The chart. Points is empty, not nil, when nothing matches.
func Scatter(table *dataset.Table, site string, rng PayloadRange) ScatterChart {
	points := []Point{}
	table.Each(func(r dataset.LaunchRecord) {
		if !rng.Contains(r.PayloadMassKg) {
			return
		}
		if site != AllSites && r.Site != site {
			return
		}
		points = append(points, Point{
			PayloadMassKg:   r.PayloadMassKg,
			Class:           r.Class,
			Site:            r.Site,
			BoosterVersion:  r.BoosterVersion,
			BoosterCategory: r.BoosterCategory,
		})
	})

	label := site
	if site == AllSites {
		label = "All Sites"
	}
	return ScatterChart{
		Site:   site,
		Title:  "Correlation between Payload and Success for " + label,
		Range:  rng,
		Points: points,
	}
}
