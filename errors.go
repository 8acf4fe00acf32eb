package baselooper

import "errors"

// Sentinel errors returned by this package's exported operations. Callers
// should compare with [errors.Is] rather than equality, since wrapped forms
// may be returned in future revisions.
var (
	// ErrInvalidOperation is returned when an operation is attempted in a
	// state that does not permit it, e.g. starting a Looper that is
	// already running locally, or posting a Message that has no Roster.
	ErrInvalidOperation = errors.New("baselooper: invalid operation")

	// ErrAlreadyOperated is returned when an operation that has already
	// been performed is requested again, e.g. starting a Looper whose
	// dedicated worker goroutine is already running.
	ErrAlreadyOperated = errors.New("baselooper: already operated")

	// ErrWouldBlock is returned when a blocking operation is attempted
	// from the very goroutine that would need to make progress to
	// unblock it, e.g. calling Stop from inside a Handler callback
	// running on the Looper's own worker goroutine.
	ErrWouldBlock = errors.New("baselooper: operation would block")

	// ErrNameNotFound is returned when a Message's target HandlerId is not
	// registered or its Looper has been garbage collected, or when Cancel
	// finds the Message no longer queued.
	ErrNameNotFound = errors.New("baselooper: handler not found")

	// ErrUnknown is a catch-all for conditions that do not fit the above
	// and are not expected to occur in correct usage.
	ErrUnknown = errors.New("baselooper: unknown error")
)
