package compute

import (
	"errors"
	"fmt"
)

// ErrConflict indicates a container occupies an instance's name without
// carrying the manager's ownership label. The manager never mutates such
// containers; callers map this to a 409-style response.
var ErrConflict = errors.New("container name is held by an unmanaged container")

// ValidationError indicates an invalid caller input: an unknown instance id
// or a routing target outside the allowed set. Maps to a 4xx response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// DependencyError indicates a required runtime dependency is unusable: the
// container engine is unreachable, or the configured GPU backend has no
// runtime on this host. Maps to a 5xx response.
type DependencyError struct {
	Subsystem string
	Err       error
}

func (e *DependencyError) Error() string {
	if e.Err == nil {
		return e.Subsystem + " unavailable"
	}
	return fmt.Sprintf("%s unavailable: %v", e.Subsystem, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
