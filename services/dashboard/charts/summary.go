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

import "github.com/AleutianAI/LaunchDash/services/dashboard/dataset"

// SiteSummary holds launch counts for one site.
type SiteSummary struct {
	Site      string  `json:"launch_site"`
	Launches  int     `json:"launches"`
	Successes int     `json:"successes"`
	Failures  int     `json:"failures"`
	Rate      float64 `json:"success_rate"`
}

// Summarize returns per-site counts in first-appearance order, followed by
// a totals row labelled AllSites.
func Summarize(table *dataset.Table) []SiteSummary {
	sites := table.Sites()
	bySite := make(map[string]*SiteSummary, len(sites))
	for _, s := range sites {
		bySite[s] = &SiteSummary{Site: s}
	}

	total := SiteSummary{Site: AllSites}
	table.Each(func(r dataset.LaunchRecord) {
		for _, s := range []*SiteSummary{bySite[r.Site], &total} {
			s.Launches++
			if r.Succeeded() {
				s.Successes++
			} else {
				s.Failures++
			}
		}
	})

	out := make([]SiteSummary, 0, len(sites)+1)
	for _, s := range sites {
		out = append(out, withRate(*bySite[s]))
	}
	return append(out, withRate(total))
}

func withRate(s SiteSummary) SiteSummary {
	if s.Launches > 0 {
		s.Rate = float64(s.Successes) / float64(s.Launches)
	}
	return s
}
