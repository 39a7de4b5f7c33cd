package cycletime

import (
	"time"

	"github.com/boshu2/prmetrics/internal/pullrequest"
)

// KeyMetrics is the per pull request record consumed by the dashboard.
// Nil metric fields mean "not computable", which is distinct from zero days.
type KeyMetrics struct {
	ID               string            `json:"id" yaml:"id"`
	Number           int               `json:"number,omitempty" yaml:"number,omitempty"`
	Title            string            `json:"title,omitempty" yaml:"title,omitempty"`
	URL              string            `json:"url,omitempty" yaml:"url,omitempty"`
	Author           string            `json:"author" yaml:"author"`
	State            pullrequest.State `json:"state" yaml:"state"`
	CreatedAt        time.Time         `json:"created_at" yaml:"created_at"`
	MergedAt         *time.Time        `json:"merged_at,omitempty" yaml:"merged_at,omitempty"`
	DeployedAt       *time.Time        `json:"deployed_at,omitempty" yaml:"deployed_at,omitempty"`
	Reviews          int               `json:"reviews" yaml:"reviews"`
	Additions        int               `json:"additions" yaml:"additions"`
	Deletions        int               `json:"deletions" yaml:"deletions"`
	HistoryUncertain bool              `json:"history_uncertain" yaml:"history_uncertain"`

	DaysToFirstReview *int `json:"days_to_first_review,omitempty" yaml:"days_to_first_review,omitempty"`
	ReworkTimeInDays  *int `json:"rework_time_in_days,omitempty" yaml:"rework_time_in_days,omitempty"`
	WaitingToDeploy   *int `json:"waiting_to_deploy,omitempty" yaml:"waiting_to_deploy,omitempty"`
	CycleTime         *int `json:"cycle_time,omitempty" yaml:"cycle_time,omitempty"`
}

// Changes is the total number of changed lines.
func (m KeyMetrics) Changes() int {
	return m.Additions + m.Deletions
}

// Derive computes every metric for pr from the same snapshot.
func (c Calendar) Derive(pr *pullrequest.PullRequest) KeyMetrics {
	m := KeyMetrics{
		ID:               pr.ID,
		Number:           pr.Number,
		Title:            pr.Title,
		URL:              pr.URL,
		Author:           pr.Author,
		State:            pr.State,
		CreatedAt:        pr.CreatedAt,
		MergedAt:         pr.MergedAt,
		Reviews:          len(pr.Reviews),
		Additions:        pr.Additions,
		Deletions:        pr.Deletions,
		HistoryUncertain: IsHistoryUncertain(pr),
	}

	if deployed, ok := FindDeploymentTime(pr); ok {
		m.DeployedAt = &deployed
	}

	m.DaysToFirstReview = optional(c.DaysToFirstReview(pr))
	m.ReworkTimeInDays = optional(c.ReworkTimeInDays(pr))
	m.WaitingToDeploy = optional(c.WaitingToDeploy(pr))
	m.CycleTime = optional(c.CycleTime(pr))

	return m
}

// Derive computes KeyMetrics with the UTC calendar.
func Derive(pr *pullrequest.PullRequest) KeyMetrics {
	return UTC.Derive(pr)
}

func optional(v int, ok bool) *int {
	if !ok {
		return nil
	}
	return &v
}
