package cycletime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boshu2/prmetrics/internal/pullrequest"
)

func TestLocate_FirstMatchInOrder(t *testing.T) {
	events := []int{1, 2, 3, 4, 5, 6}
	even := func(v int) bool { return v%2 == 0 }

	got, ok := Locate(events, Natural, even)
	require.True(t, ok)
	assert.Equal(t, 2, got)

	got, ok = Locate(events, Reversed, even)
	require.True(t, ok)
	assert.Equal(t, 6, got)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, events, "Locate must not reorder its input")
}

func TestLocate_NoMatch(t *testing.T) {
	never := func(int) bool { return false }

	_, ok := Locate([]int{1, 2, 3}, Natural, never)
	assert.False(t, ok)

	_, ok = Locate([]int{}, Reversed, func(int) bool { return true })
	assert.False(t, ok)

	_, ok = Locate[int](nil, Natural, func(int) bool { return true })
	assert.False(t, ok)
}

func TestLocate_ReversalLaw(t *testing.T) {
	type item struct {
		pos int
		val int
	}
	values := []int{3, 7, 2, 7, 8, 1, 7, 4, 2, 9}
	events := make([]item, len(values))
	for i, v := range values {
		events[i] = item{pos: i, val: v}
	}

	predicates := map[string]func(item) bool{
		"seven":      func(e item) bool { return e.val == 7 },
		"even":       func(e item) bool { return e.val%2 == 0 },
		"gt eight":   func(e item) bool { return e.val > 8 },
		"none":       func(e item) bool { return e.val > 100 },
		"everything": func(item) bool { return true },
	}

	for name, pred := range predicates {
		t.Run(name, func(t *testing.T) {
			reversed, okReversed := Locate(events, Reversed, pred)

			var last item
			okLast := false
			for _, e := range events {
				if pred(e) {
					last, okLast = e, true
				}
			}

			assert.Equal(t, okLast, okReversed)
			assert.Equal(t, last, reversed)
		})
	}
}

func TestOrderString(t *testing.T) {
	assert.Equal(t, "natural", Natural.String())
	assert.Equal(t, "reversed", Reversed.String())
}

func TestInitialReviewTime(t *testing.T) {
	pr := newPR(withReviews(
		review("alice", day(4, 12)),
		review("bob", day(5, 10)),
		review("carol", day(6, 10)),
	))

	got, ok := InitialReviewTime(pr)
	require.True(t, ok)
	assert.Equal(t, day(5, 10), got)
}

func TestInitialReviewTime_OnlyAuthor(t *testing.T) {
	pr := newPR(withReviews(review("alice", day(5, 10))))

	_, ok := InitialReviewTime(pr)
	assert.False(t, ok)
}

func TestLastReviewTime(t *testing.T) {
	pr := newPR(
		merged(day(8, 12)),
		withReviews(
			review("bob", day(5, 10)),
			review("carol", day(7, 10)),
			review("alice", day(8, 9)),
			review("bob", day(8, 12)), // at merge, not strictly before
			review("dave", day(11, 9)),
		),
	)

	got, ok := LastReviewTime(pr)
	require.True(t, ok)
	assert.Equal(t, day(7, 10), got)
}

func TestLastReviewTime_Unmerged(t *testing.T) {
	pr := newPR(withReviews(review("bob", day(5, 10))))

	_, ok := LastReviewTime(pr)
	assert.False(t, ok)
}

func TestLocateReview_PassesOwningPullRequest(t *testing.T) {
	pr := newPR(withReviews(review("bob", day(5, 10))))

	var seen *pullrequest.PullRequest
	_, ok := LocateReview(pr, Natural, func(r pullrequest.Review, owner *pullrequest.PullRequest) bool {
		seen = owner
		return true
	})
	require.True(t, ok)
	assert.Same(t, pr, seen)
}

func TestFindDeploymentTime(t *testing.T) {
	pr := newPR(withTimeline(
		pullrequest.LabelApplied{LabelName: "deployed-STAGING", CreatedAt: day(8, 9)},
		pullrequest.OtherEvent{Typename: "ReadyForReviewEvent"},
		pullrequest.LabelApplied{LabelName: DeploymentLabel, CreatedAt: day(11, 9)},
		pullrequest.LabelApplied{LabelName: DeploymentLabel, CreatedAt: day(12, 9)},
	))

	got, ok := FindDeploymentTime(pr)
	require.True(t, ok)
	assert.Equal(t, day(11, 9), got)
}

func TestFindDeploymentTime_CaseSensitive(t *testing.T) {
	pr := newPR(withTimeline(
		pullrequest.LabelApplied{LabelName: "deployed-prod", CreatedAt: day(11, 9)},
		pullrequest.LabelApplied{LabelName: "Deployed-PROD", CreatedAt: day(11, 9)},
	))

	_, ok := FindDeploymentTime(pr)
	assert.False(t, ok)
}

// --- fixtures ---

type prOption func(*pullrequest.PullRequest)

func newPR(opts ...prOption) *pullrequest.PullRequest {
	pr := &pullrequest.PullRequest{
		ID:            "PR_1",
		Author:        "alice",
		State:         pullrequest.StateOpen,
		CreatedAt:     day(4, 9),
		Reviews:       []pullrequest.Review{},
		TimelineItems: []pullrequest.TimelineEvent{},
	}
	for _, opt := range opts {
		opt(pr)
	}
	return pr
}

func merged(at time.Time) prOption {
	return func(pr *pullrequest.PullRequest) {
		pr.State = pullrequest.StateMerged
		pr.MergedAt = &at
	}
}

func withReviews(reviews ...pullrequest.Review) prOption {
	return func(pr *pullrequest.PullRequest) {
		pr.Reviews = append(pr.Reviews, reviews...)
	}
}

func withTimeline(events ...pullrequest.TimelineEvent) prOption {
	return func(pr *pullrequest.PullRequest) {
		pr.TimelineItems = append(pr.TimelineItems, events...)
	}
}

func review(author string, at time.Time) pullrequest.Review {
	return pullrequest.Review{Author: author, SubmittedAt: at}
}
