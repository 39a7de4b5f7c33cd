// Package pullrequest models a pull request snapshot the way the GitHub GraphQL
// search API returns it: the opening metadata, submitted reviews in the order
// they were returned, and timeline items.
//
// Records are built once per query result and treated as immutable. Nothing in
// this module re-sorts Reviews or TimelineItems.
package pullrequest

import "time"

// State is the lifecycle state of a pull request.
type State string

// Pull request states.
const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
	StateMerged State = "MERGED"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateOpen, StateClosed, StateMerged:
		return true
	}
	return false
}

// PullRequest is the unit of analysis.
type PullRequest struct {
	ID        string
	Number    int
	Title     string
	URL       string
	Author    string
	State     State
	CreatedAt time.Time
	// MergedAt is nil unless State is StateMerged.
	MergedAt  *time.Time
	Additions int
	Deletions int

	// Reviews in chronological order as returned by the source.
	Reviews []Review
	// TimelineItems in chronological order as returned by the source.
	TimelineItems []TimelineEvent
}

// Review is a submitted pull request review.
type Review struct {
	Author      string
	SubmittedAt time.Time
}

// IsMerged reports whether the pull request reached the MERGED state.
func (pr *PullRequest) IsMerged() bool {
	return pr.State == StateMerged
}
