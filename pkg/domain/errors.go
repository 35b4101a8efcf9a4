package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by board document operations. Callers match them with
// errors.Is; the concrete errors carry the details.
var (
	// ErrInvariantViolation signals a programmer contract breach such as
	// removing an item that is not a member. The document is left unchanged.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDuplicateEntity signals a recoverable data conflict such as two
	// devices for the same component instance.
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrCompensationFailed signals that rolling back a partially applied
	// attach or detach failed. The document state is undefined afterwards.
	ErrCompensationFailed = errors.New("compensation failed")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// InvariantError describes a violated document invariant.
type InvariantError struct {
	Op     string
	Detail string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Op, ErrInvariantViolation)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, ErrInvariantViolation, e.Detail)
}

// Unwrap exposes ErrInvariantViolation to errors.Is.
func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// Invariant builds an InvariantError for op with a formatted detail.
func Invariant(op, format string, args ...any) error {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// DuplicateEntityError reports an entity whose key is already taken.
type DuplicateEntityError struct {
	Entity EntityType
	Key    string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("there is already a %s with the key %q", e.Entity, e.Key)
}

// Unwrap exposes ErrDuplicateEntity to errors.Is.
func (e *DuplicateEntityError) Unwrap() error { return ErrDuplicateEntity }

// NotFoundError is returned when a lookup by identifier fails.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Unwrap exposes ErrNotFound to errors.Is.
func (e NotFoundError) Unwrap() error { return ErrNotFound }
