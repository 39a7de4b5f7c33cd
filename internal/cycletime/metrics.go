package cycletime

import (
	"time"

	"github.com/boshu2/prmetrics/internal/pullrequest"
)

// DaysToFirstReview is the number of business days from creation to the
// first review by someone other than the author.
func (c Calendar) DaysToFirstReview(pr *pullrequest.PullRequest) (int, bool) {
	initial, ok := InitialReviewTime(pr)
	if !ok {
		return 0, false
	}
	return c.BusinessDaysBetween(initial, pr.CreatedAt), true
}

// ReworkTimeInDays is the number of business days between the first and the
// last pre-merge review by someone other than the author. Absent when either
// review is missing.
func (c Calendar) ReworkTimeInDays(pr *pullrequest.PullRequest) (int, bool) {
	last, ok := LastReviewTime(pr)
	if !ok {
		return 0, false
	}
	initial, ok := InitialReviewTime(pr)
	if !ok {
		return 0, false
	}
	return c.BusinessDaysBetween(last, initial), true
}

// WaitingToDeploy is the number of business days between the last pre-merge
// review and the deployment label.
func (c Calendar) WaitingToDeploy(pr *pullrequest.PullRequest) (int, bool) {
	last, ok := LastReviewTime(pr)
	if !ok {
		return 0, false
	}
	deployed, ok := FindDeploymentTime(pr)
	if !ok {
		return 0, false
	}
	return c.BusinessDaysBetween(deployed, last), true
}

// CycleTime is the number of business days from creation to deployment, or to
// merge when the pull request was never labeled as deployed. Absent for
// pull requests that are not merged or whose history is uncertain.
func (c Calendar) CycleTime(pr *pullrequest.PullRequest) (int, bool) {
	end, ok := completedAt(pr)
	if !ok {
		return 0, false
	}
	return c.BusinessDaysBetween(end, pr.CreatedAt), true
}

// completedAt is the effective end of a pull request's cycle.
func completedAt(pr *pullrequest.PullRequest) (time.Time, bool) {
	if !pr.IsMerged() || IsHistoryUncertain(pr) {
		return time.Time{}, false
	}
	if deployed, ok := FindDeploymentTime(pr); ok {
		return deployed, true
	}
	if pr.MergedAt == nil {
		return time.Time{}, false
	}
	return *pr.MergedAt, true
}

// DaysToFirstReview computes Calendar.DaysToFirstReview with the UTC calendar.
func DaysToFirstReview(pr *pullrequest.PullRequest) (int, bool) {
	return UTC.DaysToFirstReview(pr)
}

// ReworkTimeInDays computes Calendar.ReworkTimeInDays with the UTC calendar.
func ReworkTimeInDays(pr *pullrequest.PullRequest) (int, bool) {
	return UTC.ReworkTimeInDays(pr)
}

// WaitingToDeploy computes Calendar.WaitingToDeploy with the UTC calendar.
func WaitingToDeploy(pr *pullrequest.PullRequest) (int, bool) {
	return UTC.WaitingToDeploy(pr)
}

// CycleTime computes Calendar.CycleTime with the UTC calendar.
func CycleTime(pr *pullrequest.PullRequest) (int, bool) {
	return UTC.CycleTime(pr)
}
