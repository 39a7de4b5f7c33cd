package report

import (
	"sort"

	"github.com/boshu2/prmetrics/internal/cycletime"
)

// Ranking labels shown on the contributions dashboard.
const (
	RankMostReviewed  = "Most Reviewed"
	RankLongestCycles = "Longest Cycles"
	RankMostChanges   = "Most Changes"
)

// Entry is one pull request in a ranking.
type Entry struct {
	ID     string `json:"id" yaml:"id"`
	Number int    `json:"number,omitempty" yaml:"number,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Author string `json:"author" yaml:"author"`
	Value  int    `json:"value" yaml:"value"`
}

// Ranking orders pull requests by one key, highest first.
type Ranking struct {
	Label   string  `json:"label" yaml:"label"`
	Entries []Entry `json:"entries" yaml:"entries"`
}

// Rankings builds the three dashboard rankings, each capped at limit entries.
func Rankings(rows []cycletime.KeyMetrics, limit int) []Ranking {
	return []Ranking{
		rank(RankMostReviewed, rows, limit, func(m cycletime.KeyMetrics) (int, bool) {
			return m.Reviews, true
		}),
		rank(RankLongestCycles, rows, limit, func(m cycletime.KeyMetrics) (int, bool) {
			if m.CycleTime == nil {
				return 0, false
			}
			return *m.CycleTime, true
		}),
		rank(RankMostChanges, rows, limit, func(m cycletime.KeyMetrics) (int, bool) {
			return m.Changes(), true
		}),
	}
}

// rank sorts descending by key. Rows without a key are left out and ties keep
// input order.
func rank(label string, rows []cycletime.KeyMetrics, limit int, key func(cycletime.KeyMetrics) (int, bool)) Ranking {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		v, ok := key(row)
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			ID:     row.ID,
			Number: row.Number,
			Title:  row.Title,
			URL:    row.URL,
			Author: row.Author,
			Value:  v,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value > entries[j].Value
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return Ranking{Label: label, Entries: entries}
}
