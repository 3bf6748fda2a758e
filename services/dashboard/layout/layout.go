// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package layout declares the dashboard page as a static component tree.
//
// # Description
//
// The tree is built once at startup from the configured site list and the
// payload bounds of the loaded table. It is never mutated afterwards: every
// visible change reaches the browser as a callback output.
//
//	Div
//	 ├─ H1            page title
//	 ├─ Dropdown      site-dropdown
//	 ├─ Br
//	 ├─ Div ─ Graph   success-pie-chart
//	 ├─ Br
//	 ├─ P             "Payload range (Kg):"
//	 ├─ RangeSlider   payload-slider
//	 └─ Div ─ Graph   success-payload-scatter-chart
package layout

import (
	"fmt"

	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
)

// =============================================================================
// Component IDs
// =============================================================================

const (
	SiteDropdownID  = "site-dropdown"
	PieChartID      = "success-pie-chart"
	PayloadSliderID = "payload-slider"
	ScatterChartID  = "success-payload-scatter-chart"
)

// DefaultTitle is the page heading.
const DefaultTitle = "SpaceX Launch Records Dashboard"

// DefaultSites is the hand-maintained dropdown list. It is not derived from
// the data; keep it in sync with the dataset's launch sites.
var DefaultSites = []string{
	"CCAFS LC-40",
	"VAFB SLC-4E",
	"KSC LC-39A",
	"CCAFS SLC-40",
}

// =============================================================================
// Component Types
// =============================================================================

// Kind names a component type.
type Kind string

const (
	KindDiv         Kind = "Div"
	KindH1          Kind = "H1"
	KindP           Kind = "P"
	KindBr          Kind = "Br"
	KindDropdown    Kind = "Dropdown"
	KindRangeSlider Kind = "RangeSlider"
	KindGraph       Kind = "Graph"
)

// Node is one element of the component tree.
//
// Exactly one of Dropdown and Slider is set for the matching Kind; other
// kinds use Text and Children only.
type Node struct {
	Kind     Kind              `json:"type"`
	ID       string            `json:"id,omitempty"`
	Text     string            `json:"text,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Dropdown *Dropdown         `json:"dropdown,omitempty"`
	Slider   *RangeSlider      `json:"slider,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

// Option is a dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Dropdown is a single-select control.
type Dropdown struct {
	Options     []Option `json:"options"`
	Value       string   `json:"value"`
	Placeholder string   `json:"placeholder"`
	Searchable  bool     `json:"searchable"`
}

// Mark is a labelled slider tick.
type Mark struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// RangeSlider selects an inclusive [low, high] interval.
type RangeSlider struct {
	Min   int        `json:"min"`
	Max   int        `json:"max"`
	Step  int        `json:"step"`
	Marks []Mark     `json:"marks"`
	Value [2]float64 `json:"value"`
}

// Page is the complete, immutable page description.
type Page struct {
	Title string `json:"title"`
	Root  Node   `json:"root"`
}

// =============================================================================
// Construction
// =============================================================================

// Options feeds Build.
type Options struct {
	// Title is the page heading. Default: DefaultTitle.
	Title string

	// Sites is the dropdown list after the "All Sites" entry.
	// Default: DefaultSites.
	Sites []string

	// PayloadMin and PayloadMax seed the slider value.
	PayloadMin float64
	PayloadMax float64
}

// Build returns the dashboard page.
//
// # Inputs
//
//   - opts: Title, site list and payload bounds. Zero values use defaults.
//
// # Outputs
//
//   - Page: The component tree.
//
// # Assumptions
//
//   - PayloadMin <= PayloadMax. Both are clamped to the slider bounds with
//     charts.SliderRange.
func Build(opts Options) Page {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	sites := opts.Sites
	if len(sites) == 0 {
		sites = DefaultSites
	}

	initial := charts.SliderRange(opts.PayloadMin, opts.PayloadMax)

	options := make([]Option, 0, len(sites)+1)
	options = append(options, Option{Label: "All Sites", Value: charts.AllSites})
	for _, s := range sites {
		options = append(options, Option{Label: s, Value: s})
	}

	return Page{
		Title: title,
		Root: Node{
			Kind: KindDiv,
			Children: []Node{
				{
					Kind:  KindH1,
					Text:  title,
					Style: map[string]string{"text-align": "center", "color": "#503D36", "font-size": "40px"},
				},
				{
					Kind: KindDropdown,
					ID:   SiteDropdownID,
					Dropdown: &Dropdown{
						Options:     options,
						Value:       charts.AllSites,
						Placeholder: "Select a Launch Site",
						Searchable:  true,
					},
				},
				{Kind: KindBr},
				{Kind: KindDiv, Children: []Node{{Kind: KindGraph, ID: PieChartID}}},
				{Kind: KindBr},
				{Kind: KindP, Text: "Payload range (Kg):"},
				{
					Kind: KindRangeSlider,
					ID:   PayloadSliderID,
					Slider: &RangeSlider{
						Min:   charts.SliderMin,
						Max:   charts.SliderMax,
						Step:  charts.SliderStep,
						Marks: sliderMarks(),
						Value: [2]float64{initial.Low, initial.High},
					},
				},
				{Kind: KindDiv, Children: []Node{{Kind: KindGraph, ID: ScatterChartID}}},
			},
		},
	}
}

func sliderMarks() []Mark {
	var marks []Mark
	for v := charts.SliderMin; v <= charts.SliderMax; v += charts.SliderStep {
		marks = append(marks, Mark{Value: v, Label: fmt.Sprintf("%d kg", v)})
	}
	return marks
}

// Find returns the node with the given id, searching depth first.
func (p Page) Find(id string) (Node, bool) {
	if id == "" {
		return Node{}, false
	}
	return find(p.Root, id)
}

func find(n Node, id string) (Node, bool) {
	if n.ID == id {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := find(c, id); ok {
			return found, true
		}
	}
	return Node{}, false
}
