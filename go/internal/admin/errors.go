package admin

import "errors"

var (
	ErrMalformedTimestamp = errors.New("malformed deadline timestamp")
	ErrInvalidExtension   = errors.New("extension must be positive and at most one year")
	ErrNoDeadline         = errors.New("auction has no deadline to extend")
	// ErrTransient is returned when a write kept conflicting after all retries.
	ErrTransient = errors.New("auction session busy, try again")
)
