package registry

import (
	"errors"
	"fmt"
)

// ErrPersonNotFound is returned when a person id is absent from the tenant's
// roster.
var ErrPersonNotFound = errors.New("person not found")

// ErrUnresolvableSubject marks an engine match whose subject id does not
// belong to any catalog tenant.
var ErrUnresolvableSubject = errors.New("unresolvable subject")

// ErrStaleSubject marks an engine match for a person the metadata store no
// longer has. The engine index and the roster can diverge after partial
// failures; a stale subject is the readable symptom of that.
var ErrStaleSubject = errors.New("stale subject")

// ValidationError reports invalid caller input. It is always returned before
// any store or engine I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
