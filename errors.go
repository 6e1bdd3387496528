package pathway

import "fmt"

// PersistenceError reports a write that failed after the step itself succeeded.
// The returned Playback is valid; the cursor is not rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
