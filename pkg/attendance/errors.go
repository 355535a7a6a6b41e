package attendance

import (
	"errors"
	"fmt"
)

// ErrInvalidIdentity is returned for an identity that is empty after normalization.
var ErrInvalidIdentity = errors.New("invalid identity")

// MarkError reports the state a Mark reached before it failed. State is the
// last step known to have completed; the failing step may have partly landed
// (an appended row on an unexpected line), and a retried Mark picks it up.
type MarkError struct {
	Identity string
	State    State
	Err      error
}

func (e *MarkError) Error() string {
	return fmt.Sprintf("mark %q failed after %s: %v", e.Identity, e.State, e.Err)
}

func (e *MarkError) Unwrap() error {
	return e.Err
}
