// Package report derives metrics for a batch of pull requests and
// aggregates them into summary tiles and rankings.
package report

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/boshu2/prmetrics/internal/cycletime"
	"github.com/boshu2/prmetrics/internal/pullrequest"
	"github.com/boshu2/prmetrics/internal/worker"
)

// Metric names, in display order.
const (
	MetricDaysToFirstReview = "days_to_first_review"
	MetricReworkTimeInDays  = "rework_time_in_days"
	MetricWaitingToDeploy   = "waiting_to_deploy"
	MetricCycleTime         = "cycle_time"
)

// DefaultRankLimit is the number of entries kept per ranking.
const DefaultRankLimit = 5

// DeriveAll computes KeyMetrics for every pull request on a worker pool.
// Results keep the input order.
func DeriveAll(cal cycletime.Calendar, prs []*pullrequest.PullRequest, workers int) []cycletime.KeyMetrics {
	pool := worker.NewPool[*pullrequest.PullRequest, cycletime.KeyMetrics](workers)
	rows := pool.Map(prs, cal.Derive)
	if rows == nil {
		rows = []cycletime.KeyMetrics{}
	}
	return rows
}

// Summary aggregates one metric over the pull requests where it is defined.
type Summary struct {
	Metric string  `json:"metric" yaml:"metric"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	Max    int     `json:"max" yaml:"max"`
}

// Report is the batch view shown on the dashboard.
type Report struct {
	RunID        string    `json:"run_id" yaml:"run_id"`
	GeneratedAt  time.Time `json:"generated_at" yaml:"generated_at"`
	PullRequests int       `json:"pull_requests" yaml:"pull_requests"`
	Merged       int       `json:"merged" yaml:"merged"`
	Deployed     int       `json:"deployed" yaml:"deployed"`
	Uncertain    int       `json:"uncertain" yaml:"uncertain"`
	Summaries    []Summary `json:"summaries" yaml:"summaries"`
	Rankings     []Ranking `json:"rankings" yaml:"rankings"`
}

// Options configures Build.
type Options struct {
	// RankLimit caps each ranking. Zero means DefaultRankLimit.
	RankLimit int
	// Now is the clock used for GeneratedAt. Nil means time.Now.
	Now func() time.Time
}

// Build aggregates derived rows into a Report.
func Build(rows []cycletime.KeyMetrics, opts Options) *Report {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	limit := opts.RankLimit
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	r := &Report{
		RunID:        uuid.NewString(),
		GeneratedAt:  now().UTC(),
		PullRequests: len(rows),
	}

	for _, row := range rows {
		if row.State == pullrequest.StateMerged {
			r.Merged++
		}
		if row.DeployedAt != nil {
			r.Deployed++
		}
		if row.HistoryUncertain {
			r.Uncertain++
		}
	}

	r.Summaries = []Summary{
		summarize(MetricDaysToFirstReview, rows, func(m cycletime.KeyMetrics) *int { return m.DaysToFirstReview }),
		summarize(MetricReworkTimeInDays, rows, func(m cycletime.KeyMetrics) *int { return m.ReworkTimeInDays }),
		summarize(MetricWaitingToDeploy, rows, func(m cycletime.KeyMetrics) *int { return m.WaitingToDeploy }),
		summarize(MetricCycleTime, rows, func(m cycletime.KeyMetrics) *int { return m.CycleTime }),
	}
	r.Rankings = Rankings(rows, limit)

	return r
}

// summarize skips rows where the metric is absent.
func summarize(name string, rows []cycletime.KeyMetrics, value func(cycletime.KeyMetrics) *int) Summary {
	s := Summary{Metric: name}

	var values []int
	for _, row := range rows {
		if v := value(row); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return s
	}

	sort.Ints(values)
	total := 0
	for _, v := range values {
		total += v
	}

	s.Count = len(values)
	s.Mean = round1(float64(total) / float64(len(values)))
	s.Max = values[len(values)-1]

	mid := len(values) / 2
	if len(values)%2 == 1 {
		s.Median = float64(values[mid])
	} else {
		s.Median = float64(values[mid-1]+values[mid]) / 2
	}
	return s
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	if v < 0 {
		return -round1(-v)
	}
	return float64(int64(v*10+0.5)) / 10
}
