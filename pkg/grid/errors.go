package grid

import "errors"

var (
	// ErrRemoteUnavailable covers network, auth and service failures of the grid backend.
	ErrRemoteUnavailable = errors.New("grid unavailable")

	// ErrMalformedGridState means the grid breaks the header/column layout and
	// needs a human to repair it.
	ErrMalformedGridState = errors.New("malformed grid state")

	// ErrCapacityExceeded means the grid ran out of addressable rows or date columns.
	ErrCapacityExceeded = errors.New("grid capacity exceeded")
)
