// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPieQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		site    string
		wantErr bool
	}{
		{"all sites", "ALL", false},
		{"specific site", "KSC LC-39A", false},
		{"empty site", "", false},
		{"control character", "KSC\nLC-39A", true},
		{"too long", strings.Repeat("x", MaxSiteBytes+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := PieQuery{Site: tt.site}
			err := q.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPieQuery_DefaultsToAll(t *testing.T) {
	assert.Equal(t, "ALL", NewPieQuery().Site)
}

func TestScatterQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
		wantErr   bool
	}{
		{"full slider", 0, 10000, false},
		{"data bounds", 0, 9600, false},
		{"single value", 3000, 3000, false},
		{"inverted", 5000, 1000, true},
		{"below minimum", -1, 1000, true},
		{"above maximum", 0, 10001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ScatterQuery{Site: "ALL", Low: tt.low, High: tt.high}
			err := q.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScatterQuery_Range(t *testing.T) {
	q := NewScatterQuery(100, 900)
	assert.Equal(t, "ALL", q.Site)
	assert.Equal(t, 100.0, q.Range().Low)
	assert.Equal(t, 900.0, q.Range().High)
}
