package registry

import (
	"errors"
	"fmt"
)

// ErrNetwork classifies every failure to talk to a remote host: transport
// errors and non-2xx responses alike.
var ErrNetwork = errors.New("network error")

// StatusError is returned when a server answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("unexpected status %d from %s: %s", e.Status, e.URL, e.Body)
}

// Unwrap lets errors.Is(err, ErrNetwork) match status failures.
func (e *StatusError) Unwrap() error { return ErrNetwork }
