package pullrequest

import (
	"encoding/json"
	"time"
)

// Kind identifies the variant of a TimelineEvent.
type Kind string

// Timeline event kinds read by the metrics engine. Everything else is KindOther.
const (
	KindForcePush    Kind = "ForcePush"
	KindLabelApplied Kind = "LabelApplied"
	KindOther        Kind = "Other"
)

// GraphQL type names mapped onto the modeled kinds.
const (
	TypeHeadRefForcePushed = "HeadRefForcePushedEvent"
	TypeBaseRefForcePushed = "BaseRefForcePushedEvent"
	TypeLabeled            = "LabeledEvent"
)

// TimelineEvent is a closed sum type over ForcePush, LabelApplied and
// OtherEvent. Switch on the concrete type to handle each variant.
type TimelineEvent interface {
	Kind() Kind
	timelineEvent()
}

// CommitRef points at a commit by object id.
type CommitRef struct {
	OID string `json:"oid"`
}

// ForcePush records a history rewrite of the head or base branch. Either
// commit may be nil when the source could not resolve it.
type ForcePush struct {
	// Typename keeps the GraphQL type so the event re-encodes as it arrived.
	Typename     string
	BeforeCommit *CommitRef
	AfterCommit  *CommitRef
	CreatedAt    time.Time
}

// LabelApplied records a label being added to the pull request.
type LabelApplied struct {
	LabelName string
	CreatedAt time.Time
}

// OtherEvent carries any timeline item the engine does not model. Raw holds
// the original node so it can be written back unchanged.
type OtherEvent struct {
	Typename string
	Raw      json.RawMessage
}

func (ForcePush) Kind() Kind    { return KindForcePush }
func (LabelApplied) Kind() Kind { return KindLabelApplied }
func (OtherEvent) Kind() Kind   { return KindOther }

func (ForcePush) timelineEvent()    {}
func (LabelApplied) timelineEvent() {}
func (OtherEvent) timelineEvent()   {}

// Resolved reports whether both sides of the force push are known.
func (f ForcePush) Resolved() bool {
	return f.BeforeCommit != nil && f.AfterCommit != nil
}
