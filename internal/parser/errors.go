package parser

import "errors"

// Sentinel errors for the parser package.
var (
	// ErrUnknownFormat is returned for an input format name the parser does not support.
	ErrUnknownFormat = errors.New("unknown input format")

	// ErrMissingSearch is returned when a GraphQL envelope has no search result.
	ErrMissingSearch = errors.New("search envelope has no search result")
)
