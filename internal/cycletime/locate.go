package cycletime

import (
	"time"

	"github.com/boshu2/prmetrics/internal/pullrequest"
)

// DeploymentLabel is the label applied to a pull request once it reaches
// production. It is matched exactly and case-sensitively.
const DeploymentLabel = "deployed-PROD"

// Order selects the direction Locate walks a sequence.
type Order int

const (
	// Natural walks from the first element to the last, so Locate returns the
	// earliest match.
	Natural Order = iota
	// Reversed walks from the last element to the first, so Locate returns the
	// latest match.
	Reversed
)

func (o Order) String() string {
	if o == Reversed {
		return "reversed"
	}
	return "natural"
}

// Locate returns the first element of events, walked in the given order, for
// which match returns true. The events slice is never modified.
func Locate[E any](events []E, order Order, match func(E) bool) (E, bool) {
	n := len(events)
	for i := 0; i < n; i++ {
		idx := i
		if order == Reversed {
			idx = n - 1 - i
		}
		if match(events[idx]) {
			return events[idx], true
		}
	}

	var zero E
	return zero, false
}

// ReviewPredicate decides whether a review matches. It receives the owning
// pull request because authorship rules compare against the PR author.
type ReviewPredicate func(review pullrequest.Review, pr *pullrequest.PullRequest) bool

// LocateReview finds the first review of pr in the given order that satisfies pred.
func LocateReview(pr *pullrequest.PullRequest, order Order, pred ReviewPredicate) (pullrequest.Review, bool) {
	return Locate(pr.Reviews, order, func(r pullrequest.Review) bool {
		return pred(r, pr)
	})
}

func reviewedByOther(r pullrequest.Review, pr *pullrequest.PullRequest) bool {
	return r.Author != pr.Author
}

func reviewedByOtherBeforeMerge(r pullrequest.Review, pr *pullrequest.PullRequest) bool {
	return reviewedByOther(r, pr) && pr.MergedAt != nil && r.SubmittedAt.Before(*pr.MergedAt)
}

// InitialReviewTime returns when the earliest review by someone other than the
// author was submitted.
func InitialReviewTime(pr *pullrequest.PullRequest) (time.Time, bool) {
	r, ok := LocateReview(pr, Natural, reviewedByOther)
	return r.SubmittedAt, ok
}

// LastReviewTime returns when the latest review by someone other than the
// author was submitted, considering only reviews strictly before the merge.
// An unmerged pull request has no last review time.
func LastReviewTime(pr *pullrequest.PullRequest) (time.Time, bool) {
	if pr.MergedAt == nil {
		return time.Time{}, false
	}
	r, ok := LocateReview(pr, Reversed, reviewedByOtherBeforeMerge)
	return r.SubmittedAt, ok
}

// FindDeploymentTime returns the createdAt of the earliest DeploymentLabel
// label event.
func FindDeploymentTime(pr *pullrequest.PullRequest) (time.Time, bool) {
	ev, ok := Locate(pr.TimelineItems, Natural, isDeployment)
	if !ok {
		return time.Time{}, false
	}
	return ev.(pullrequest.LabelApplied).CreatedAt, true
}

func isDeployment(ev pullrequest.TimelineEvent) bool {
	switch e := ev.(type) {
	case pullrequest.LabelApplied:
		return e.LabelName == DeploymentLabel
	case pullrequest.ForcePush, pullrequest.OtherEvent:
		return false
	default:
		return false
	}
}
