// Package shared holds cross-cutting pieces used by every domain module.
package shared

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness rule was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates the input violates a business invariant. The
	// wrapping error names the invariant and the valid range.
	ErrValidation = errors.New("validation failed")
	// ErrHasDependents rejects a delete while dependent records exist.
	ErrHasDependents = errors.New("dependent records exist")
	// ErrImmutable rejects any change to a record in a terminal state,
	// such as a voided invoice or a reviewed progress entry.
	ErrImmutable = errors.New("record cannot be changed")
)
