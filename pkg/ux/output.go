// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the launchdash CLI.
package ux

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// Palette
// =============================================================================

var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // headers
	ColorTealDeep    = lipgloss.Color("#16858E") // borders
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text
	ColorWarning     = lipgloss.Color("#F4D03F")
	ColorError       = lipgloss.Color("#E74C3C")
)

// Styles are the shared text and box styles.
var Styles = struct {
	Title   lipgloss.Style
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Header:  lipgloss.NewStyle().Bold(true).Foreground(ColorTealPrimary),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// =============================================================================
// Tables
// =============================================================================

// Table is a titled grid of cells.
//
// # Fields
//
//   - Title: Shown above the grid. Optional.
//   - Headers: Column names.
//   - Rows: Cells, one slice per row. Short rows are padded.
//   - RightAlign: Columns to right-align, by index (numbers).
//   - Footer: Rows after a separator (totals). Optional.
type Table struct {
	Title      string
	Headers    []string
	Rows       [][]string
	Footer     [][]string
	RightAlign map[int]bool
}

// Render writes t to w.
//
// # Description
//
// Styled output draws a rounded box with coloured headers for a terminal.
// Plain output is tab-aligned text without escape codes, for pipes and
// files.
func (t Table) Render(w io.Writer, styled bool) error {
	if styled {
		_, err := fmt.Fprintln(w, t.styled())
		return err
	}
	return t.plain(w)
}

func (t Table) plain(w io.Writer) error {
	if t.Title != "" {
		if _, err := fmt.Fprintln(w, t.Title); err != nil {
			return err
		}
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(t.pad(row), "\t"))
	}
	for _, row := range t.Footer {
		fmt.Fprintln(tw, strings.Join(t.pad(row), "\t"))
	}
	return tw.Flush()
}

func (t Table) styled() string {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, cell := range t.pad(row) {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	for _, row := range t.Footer {
		measure(row)
	}

	line := func(row []string, style lipgloss.Style) string {
		cells := make([]string, len(widths))
		for i, cell := range t.pad(row) {
			align := lipgloss.Left
			if t.RightAlign[i] {
				align = lipgloss.Right
			}
			cells[i] = style.Width(widths[i]).Align(align).Render(cell)
		}
		return strings.Join(cells, "  ")
	}

	total := 0
	for _, w := range widths {
		total += w
	}
	total += 2 * (len(widths) - 1)

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(Styles.Title.Render(t.Title))
		b.WriteString("\n")
	}
	b.WriteString(line(t.Headers, Styles.Header))
	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(line(row, lipgloss.NewStyle()))
	}
	if len(t.Footer) > 0 {
		b.WriteString("\n")
		b.WriteString(Styles.Muted.Render(strings.Repeat("─", total)))
		for _, row := range t.Footer {
			b.WriteString("\n")
			b.WriteString(line(row, lipgloss.NewStyle().Bold(true)))
		}
	}
	return Styles.Box.Render(b.String())
}

// pad extends row to the header count.
func (t Table) pad(row []string) []string {
	if len(row) >= len(t.Headers) {
		return row[:len(t.Headers)]
	}
	out := make([]string, len(t.Headers))
	copy(out, row)
	return out
}
