// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the request and response types of the dashboard
// HTTP surface together with their validation rules.
package datatypes

import (
	"github.com/AleutianAI/LaunchDash/services/dashboard/charts"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// MaxSiteBytes bounds the site parameter. Longer values cannot match any
// site and are rejected rather than scanned.
const MaxSiteBytes = 128

var queryValidate *validator.Validate

func init() {
	queryValidate = validator.New()
	_ = queryValidate.RegisterValidation("sitename", validateSiteName)
}

// validateSiteName accepts any printable string up to MaxSiteBytes. An empty
// site is allowed: it matches nothing and yields a degenerate chart.
func validateSiteName(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) > MaxSiteBytes {
		return false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// =============================================================================
// Chart Queries
// =============================================================================

// PieQuery selects the pie chart.
//
// # Fields
//
//   - Site: "ALL" or an exact launch site name. Default "ALL".
type PieQuery struct {
	Site string `form:"site" json:"site" validate:"sitename"`
}

// NewPieQuery returns a query with defaults applied.
func NewPieQuery() PieQuery {
	return PieQuery{Site: charts.AllSites}
}

// Validate checks the query against its tags.
func (q *PieQuery) Validate() error {
	return queryValidate.Struct(q)
}

// ScatterQuery selects the scatter chart.
//
// # Fields
//
//   - Site: "ALL" or an exact launch site name.
//   - Low, High: Inclusive payload range inside the slider bounds
//     [0, 10000], with Low <= High.
type ScatterQuery struct {
	Site string  `form:"site" json:"site" validate:"sitename"`
	Low  float64 `form:"low" json:"low" validate:"gte=0,lte=10000"`
	High float64 `form:"high" json:"high" validate:"gte=0,lte=10000,gtefield=Low"`
}

// NewScatterQuery returns a query covering the given payload bounds for all
// sites. Callers pass the table's min and max as the slider does.
func NewScatterQuery(low, high float64) ScatterQuery {
	return ScatterQuery{Site: charts.AllSites, Low: low, High: high}
}

// Validate checks the query against its tags.
func (q *ScatterQuery) Validate() error {
	return queryValidate.Struct(q)
}

// Range returns the payload range of the query.
func (q ScatterQuery) Range() charts.PayloadRange {
	return charts.PayloadRange{Low: q.Low, High: q.High}
}

// =============================================================================
// Responses
// =============================================================================

// ErrorResponse is the JSON body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// SummaryResponse is the body of GET /v1/summary.
type SummaryResponse struct {
	Sites      []charts.SiteSummary `json:"sites"`
	PayloadMin float64              `json:"payload_min_kg"`
	PayloadMax float64              `json:"payload_max_kg"`
	Records    int                  `json:"records"`
}
