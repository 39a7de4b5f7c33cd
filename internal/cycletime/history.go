package cycletime

import "github.com/boshu2/prmetrics/internal/pullrequest"

// IsHistoryUncertain reports whether pr contains a force push whose before or
// after commit could not be resolved. Such a history cannot bound a cycle time.
func IsHistoryUncertain(pr *pullrequest.PullRequest) bool {
	_, found := Locate(pr.TimelineItems, Natural, isUnresolvedForcePush)
	return found
}

func isUnresolvedForcePush(ev pullrequest.TimelineEvent) bool {
	switch e := ev.(type) {
	case pullrequest.ForcePush:
		return !e.Resolved()
	case pullrequest.LabelApplied, pullrequest.OtherEvent:
		return false
	default:
		return false
	}
}
