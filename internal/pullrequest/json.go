package pullrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Wire shapes follow the GitHub GraphQL search result for a PullRequest node.

type wireActor struct {
	Login string `json:"login"`
}

type wireReviewNode struct {
	Author      *wireActor `json:"author"`
	SubmittedAt *time.Time `json:"submittedAt"`
}

type wireReviewEdge struct {
	Node wireReviewNode `json:"node"`
}

type wireReviews struct {
	Edges []wireReviewEdge `json:"edges"`
}

type wireTimelineEdge struct {
	Node json.RawMessage `json:"node"`
}

type wireTimeline struct {
	Edges []wireTimelineEdge `json:"edges"`
}

type wirePullRequest struct {
	ID            string        `json:"id"`
	Number        int           `json:"number,omitempty"`
	Title         string        `json:"title,omitempty"`
	URL           string        `json:"url,omitempty"`
	Author        *wireActor    `json:"author"`
	State         State         `json:"state"`
	CreatedAt     *time.Time    `json:"createdAt"`
	MergedAt      *time.Time    `json:"mergedAt"`
	Additions     int           `json:"additions"`
	Deletions     int           `json:"deletions"`
	Reviews       *wireReviews  `json:"reviews"`
	TimelineItems *wireTimeline `json:"timelineItems"`
}

type wireForcePush struct {
	Typename     string     `json:"__typename"`
	BeforeCommit *CommitRef `json:"beforeCommit"`
	AfterCommit  *CommitRef `json:"afterCommit"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

type wireLabel struct {
	Name string `json:"name"`
}

type wireLabeled struct {
	Typename  string     `json:"__typename"`
	Label     *wireLabel `json:"label"`
	CreatedAt *time.Time `json:"createdAt"`
}

// UnmarshalJSON decodes a GraphQL PullRequest node. The reviews and
// timelineItems connections must be present; empty edge lists are fine.
// createdAt is required on the pull request and on every LabeledEvent.
// Reviews without a submittedAt are still pending and are dropped.
func (pr *PullRequest) UnmarshalJSON(data []byte) error {
	var w wirePullRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Reviews == nil {
		return ErrMissingReviews
	}
	if w.TimelineItems == nil {
		return ErrMissingTimeline
	}
	if w.CreatedAt == nil {
		return ErrMissingCreatedAt
	}
	if !w.State.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownState, w.State)
	}

	out := PullRequest{
		ID:            w.ID,
		Number:        w.Number,
		Title:         w.Title,
		URL:           w.URL,
		Author:        login(w.Author),
		State:         w.State,
		CreatedAt:     *w.CreatedAt,
		MergedAt:      w.MergedAt,
		Additions:     w.Additions,
		Deletions:     w.Deletions,
		Reviews:       make([]Review, 0, len(w.Reviews.Edges)),
		TimelineItems: make([]TimelineEvent, 0, len(w.TimelineItems.Edges)),
	}

	for _, edge := range w.Reviews.Edges {
		if edge.Node.SubmittedAt == nil {
			continue
		}
		out.Reviews = append(out.Reviews, Review{
			Author:      login(edge.Node.Author),
			SubmittedAt: *edge.Node.SubmittedAt,
		})
	}

	for i, edge := range w.TimelineItems.Edges {
		ev, err := decodeTimelineEvent(edge.Node)
		if err != nil {
			return fmt.Errorf("timeline item %d: %w", i, err)
		}
		out.TimelineItems = append(out.TimelineItems, ev)
	}

	*pr = out
	return nil
}

// MarshalJSON writes the pull request back in the GraphQL shape it was read
// from. Unmodeled timeline items are emitted byte-for-byte.
func (pr PullRequest) MarshalJSON() ([]byte, error) {
	w := wirePullRequest{
		ID:            pr.ID,
		Number:        pr.Number,
		Title:         pr.Title,
		URL:           pr.URL,
		State:         pr.State,
		CreatedAt:     &pr.CreatedAt,
		MergedAt:      pr.MergedAt,
		Additions:     pr.Additions,
		Deletions:     pr.Deletions,
		Reviews:       &wireReviews{Edges: make([]wireReviewEdge, 0, len(pr.Reviews))},
		TimelineItems: &wireTimeline{Edges: make([]wireTimelineEdge, 0, len(pr.TimelineItems))},
	}
	if pr.Author != "" {
		w.Author = &wireActor{Login: pr.Author}
	}

	for _, r := range pr.Reviews {
		submitted := r.SubmittedAt
		node := wireReviewNode{SubmittedAt: &submitted}
		if r.Author != "" {
			node.Author = &wireActor{Login: r.Author}
		}
		w.Reviews.Edges = append(w.Reviews.Edges, wireReviewEdge{Node: node})
	}

	for i, ev := range pr.TimelineItems {
		raw, err := encodeTimelineEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("timeline item %d: %w", i, err)
		}
		w.TimelineItems.Edges = append(w.TimelineItems.Edges, wireTimelineEdge{Node: raw})
	}

	return json.Marshal(w)
}

func login(a *wireActor) string {
	if a == nil {
		return ""
	}
	return a.Login
}

// decodeTimelineEvent picks the variant from __typename. Nodes without a type
// name are classified by the fields they carry.
func decodeTimelineEvent(raw json.RawMessage) (TimelineEvent, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	var typename string
	if t, ok := probe["__typename"]; ok {
		if err := json.Unmarshal(t, &typename); err != nil {
			return nil, fmt.Errorf("__typename: %w", err)
		}
	}

	_, hasBefore := probe["beforeCommit"]
	_, hasAfter := probe["afterCommit"]
	_, hasLabel := probe["label"]

	switch {
	case typename == TypeHeadRefForcePushed || typename == TypeBaseRefForcePushed ||
		(typename == "" && (hasBefore || hasAfter)):
		var n wireForcePush
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		fp := ForcePush{
			Typename:     typename,
			BeforeCommit: n.BeforeCommit,
			AfterCommit:  n.AfterCommit,
		}
		if n.CreatedAt != nil {
			fp.CreatedAt = *n.CreatedAt
		}
		return fp, nil

	case typename == TypeLabeled || (typename == "" && hasLabel):
		var n wireLabeled
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		if n.CreatedAt == nil {
			return nil, ErrMissingCreatedAt
		}
		la := LabelApplied{CreatedAt: *n.CreatedAt}
		if n.Label != nil {
			la.LabelName = n.Label.Name
		}
		return la, nil

	default:
		return OtherEvent{
			Typename: typename,
			Raw:      append(json.RawMessage(nil), bytes.TrimSpace(raw)...),
		}, nil
	}
}

func encodeTimelineEvent(ev TimelineEvent) (json.RawMessage, error) {
	switch e := ev.(type) {
	case ForcePush:
		typename := e.Typename
		if typename == "" {
			typename = TypeHeadRefForcePushed
		}
		n := wireForcePush{
			Typename:     typename,
			BeforeCommit: e.BeforeCommit,
			AfterCommit:  e.AfterCommit,
		}
		if !e.CreatedAt.IsZero() {
			created := e.CreatedAt
			n.CreatedAt = &created
		}
		return json.Marshal(n)

	case LabelApplied:
		created := e.CreatedAt
		return json.Marshal(wireLabeled{
			Typename:  TypeLabeled,
			Label:     &wireLabel{Name: e.LabelName},
			CreatedAt: &created,
		})

	case OtherEvent:
		if len(e.Raw) == 0 {
			return json.Marshal(map[string]string{"__typename": e.Typename})
		}
		return e.Raw, nil

	default:
		return nil, fmt.Errorf("unsupported timeline event %T", ev)
	}
}
