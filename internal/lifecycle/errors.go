package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput marks malformed or missing fields, rejected before any write.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict marks a canonical-name collision.
	ErrConflict = errors.New("organization name already exists")
	// ErrNotFound marks a lookup with no matching organization.
	ErrNotFound = errors.New("organization not found")
	// ErrForbidden marks an authenticated caller that is not the owning administrator.
	ErrForbidden = errors.New("not authorized for this organization")
)

// DependencyError reports a storage-layer failure mid-sequence. When a
// provisioning rollback was attempted, Compensation holds the failures of the
// compensating deletes themselves; a non-empty Compensation means the
// directory is in an inconsistent state requiring manual intervention.
type DependencyError struct {
	Op           string
	Err          error
	Compensation []error
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if len(e.Compensation) > 0 {
		parts := make([]string, 0, len(e.Compensation))
		for _, c := range e.Compensation {
			parts = append(parts, c.Error())
		}
		msg += " (rollback incomplete: " + strings.Join(parts, "; ") + ")"
	}
	return msg
}

func (e *DependencyError) Unwrap() error { return e.Err }
