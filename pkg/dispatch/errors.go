package dispatch

import "fmt"

// UnresolvedRunError reports a run request whose identifier matched no
// library record. Launching needs a concrete game id, so this is a hard
// failure rather than a notification.
type UnresolvedRunError struct {
	Identifier string
}

func (e *UnresolvedRunError) Error() string {
	return fmt.Sprintf("cannot run %q: no matching game in the library", e.Identifier)
}
