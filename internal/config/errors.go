package config

import "errors"

// Sentinel errors returned by Validate and the typed accessors.
var (
	ErrInvalidOutput    = errors.New("invalid output format")
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrInvalidDuration  = errors.New("invalid duration")
	ErrInvalidWorkers   = errors.New("workers must not be negative")
)
