package pullrequest

import "errors"

// ErrInvalidRecord wraps every schema violation found while decoding a pull
// request. Callers match it with errors.Is to tell schema problems apart from
// malformed JSON.
var ErrInvalidRecord = errors.New("invalid pull request record")

// Specific schema violations. Each one also matches ErrInvalidRecord.
var (
	ErrMissingReviews   = schemaError("reviews connection is missing")
	ErrMissingTimeline  = schemaError("timelineItems connection is missing")
	ErrMissingCreatedAt = schemaError("createdAt is missing")
	ErrUnknownState     = schemaError("unknown pull request state")
)

type recordError struct {
	msg string
}

func schemaError(msg string) error {
	return &recordError{msg: msg}
}

func (e *recordError) Error() string { return e.msg }

func (e *recordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
