// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset loads launch records from CSV into an immutable table.
//
// # Description
//
// The table is built once at process start and never mutated afterwards.
// Chart callbacks read it concurrently without locking.
//
// # Required Columns
//
//   - "Launch Site"
//   - "class" (0 or 1)
//   - "Payload Mass (kg)"
//   - "Booster Version Category"
//
// "Flight Number" and "Booster Version" are read when present. Any other
// column, including the unnamed index column written by pandas, is ignored.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// Column Names
// =============================================================================

const (
	ColumnLaunchSite      = "Launch Site"
	ColumnClass           = "class"
	ColumnPayloadMass     = "Payload Mass (kg)"
	ColumnBoosterCategory = "Booster Version Category"
	ColumnFlightNumber    = "Flight Number"
	ColumnBoosterVersion  = "Booster Version"
)

// requiredColumns must all appear in the header row.
var requiredColumns = []string{
	ColumnLaunchSite,
	ColumnClass,
	ColumnPayloadMass,
	ColumnBoosterCategory,
}

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrInvalidOutcome is returned when a class value is not 0 or 1.
	ErrInvalidOutcome = errors.New("outcome class must be 0 or 1")

	// ErrInvalidPayload is returned when a payload mass is not a finite number.
	ErrInvalidPayload = errors.New("payload mass is not numeric")

	// ErrEmptyDataset is returned when the file has a header but no rows.
	ErrEmptyDataset = errors.New("dataset has no rows")
)

// =============================================================================
// Types
// =============================================================================

// Outcome classes.
const (
	ClassFailure = 0
	ClassSuccess = 1
)

// LaunchRecord is one row of the dataset.
type LaunchRecord struct {
	FlightNumber    int     `json:"flight_number,omitempty"`
	Site            string  `json:"launch_site"`
	Class           int     `json:"class"`
	PayloadMassKg   float64 `json:"payload_mass_kg"`
	BoosterVersion  string  `json:"booster_version,omitempty"`
	BoosterCategory string  `json:"booster_version_category"`
}

// Succeeded reports whether the launch outcome is a success.
func (r LaunchRecord) Succeeded() bool {
	return r.Class == ClassSuccess
}

// Table is the read-only launch-record table.
//
// # Thread Safety
//
// Safe for concurrent reads. Nothing mutates a Table after Parse returns.
type Table struct {
	records    []LaunchRecord
	payloadMin float64
	payloadMax float64
}

// NewTable builds a table from records already in memory.
//
// # Description
//
// Validates outcome classes the same way Parse does and computes payload
// bounds. The slice is copied so later changes by the caller do not leak in.
//
// # Inputs
//
//   - records: Rows in display order. May be empty.
//
// # Outputs
//
//   - *Table: The table.
//   - error: ErrInvalidOutcome if any class is not 0 or 1, ErrInvalidPayload
//     if any payload is NaN or infinite.
func NewTable(records []LaunchRecord) (*Table, error) {
	t := &Table{records: make([]LaunchRecord, len(records))}
	copy(t.records, records)
	for i, r := range t.records {
		if r.Class != ClassFailure && r.Class != ClassSuccess {
			return nil, fmt.Errorf("record %d: %w (got %d)", i, ErrInvalidOutcome, r.Class)
		}
		if !isFinite(r.PayloadMassKg) {
			return nil, fmt.Errorf("record %d: %w (got %v)", i, ErrInvalidPayload, r.PayloadMassKg)
		}
		if i == 0 || r.PayloadMassKg < t.payloadMin {
			t.payloadMin = r.PayloadMassKg
		}
		if i == 0 || r.PayloadMassKg > t.payloadMax {
			t.payloadMax = r.PayloadMassKg
		}
	}
	return t, nil
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of all rows in file order.
func (t *Table) Records() []LaunchRecord {
	out := make([]LaunchRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Each calls fn for every record in file order without copying the table.
func (t *Table) Each(fn func(LaunchRecord)) {
	for _, r := range t.records {
		fn(r)
	}
}

// PayloadMin returns the smallest payload mass. Zero for an empty table.
func (t *Table) PayloadMin() float64 {
	return t.payloadMin
}

// PayloadMax returns the largest payload mass. Zero for an empty table.
func (t *Table) PayloadMax() float64 {
	return t.payloadMax
}

// Sites returns distinct launch sites in first-appearance order.
func (t *Table) Sites() []string {
	seen := make(map[string]bool)
	var sites []string
	for _, r := range t.records {
		if !seen[r.Site] {
			seen[r.Site] = true
			sites = append(sites, r.Site)
		}
	}
	return sites
}

// UnknownSites returns the dataset sites that are not in the given list.
//
// # Description
//
// The dropdown options are maintained by hand. This reports drift between
// that list and the data so it can be logged at startup. Nothing enforces
// consistency.
func (t *Table) UnknownSites(configured []string) []string {
	known := make(map[string]bool, len(configured))
	for _, s := range configured {
		known[s] = true
	}
	var unknown []string
	for _, s := range t.Sites() {
		if !known[s] {
			unknown = append(unknown, s)
		}
	}
	return unknown
}

// =============================================================================
// Loading
// =============================================================================

// Load reads and parses the CSV file at path.
//
// # Description
//
// Called once at startup. Any failure is fatal to the caller: there is no
// partial table.
//
// # Inputs
//
//   - path: Path to the CSV file, relative to the working directory or absolute.
//
// # Outputs
//
//   - *Table: The loaded table.
//   - error: Wrapped os error, or one of the ErrX sentinels of this package.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return t, nil
}

// Parse reads launch records from CSV.
//
// # Inputs
//
//   - r: CSV stream with a header row.
//
// # Outputs
//
//   - *Table: The parsed table.
//   - error: Non-nil for malformed CSV, missing columns, a non-numeric
//     payload, or an outcome class outside {0, 1}.
//
// # Limitations
//
//   - The whole file is held in memory.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := indexColumns(header)
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var records []LaunchRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	return NewTable(records)
}

// indexColumns maps trimmed header names to their position.
func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func parseRow(row []string, idx map[string]int) (LaunchRecord, error) {
	field := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec LaunchRecord
	rec.Site = field(ColumnLaunchSite)
	rec.BoosterCategory = field(ColumnBoosterCategory)
	rec.BoosterVersion = field(ColumnBoosterVersion)

	class, err := parseClass(field(ColumnClass))
	if err != nil {
		return rec, err
	}
	rec.Class = class

	payload, err := strconv.ParseFloat(field(ColumnPayloadMass), 64)
	if err != nil || !isFinite(payload) {
		return rec, fmt.Errorf("%w: %q", ErrInvalidPayload, field(ColumnPayloadMass))
	}
	rec.PayloadMassKg = payload

	if fn := field(ColumnFlightNumber); fn != "" {
		if n, err := strconv.Atoi(fn); err == nil {
			rec.FlightNumber = n
		}
	}
	return rec, nil
}

// isFinite rejects NaN and ±Inf, which ParseFloat accepts.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// parseClass accepts "0", "1" and their float spellings ("0.0", "1.0").
func parseClass(raw string) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidOutcome, raw)
	}
	switch v {
	case 0:
		return ClassFailure, nil
	case 1:
		return ClassSuccess, nil
	}
	return 0, fmt.Errorf("%w (got %q)", ErrInvalidOutcome, raw)
}
