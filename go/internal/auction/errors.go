package auction

import "errors"

var (
	// ErrWriteConflict is returned when a conditional write observed a different version
	// or the backend aborted the transaction. Callers retry.
	ErrWriteConflict = errors.New("auction session write conflict")

	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("auction session store unavailable")

	// ErrInvalidMutation is returned for a mutation without a deadline.
	ErrInvalidMutation = errors.New("auction session mutation requires a deadline")
)
