package ih

import (
	"errors"
	"fmt"
)

// Error kinds returned by the core. Callers branch with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("version conflict")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrPostingInactive   = errors.New("posting is not accepting applications")
	ErrDuplicate         = errors.New("duplicate application")
	ErrNoResume          = errors.New("no resume attached")
	ErrCorruptAttachment = errors.New("attachment is unreadable")
)

// ValidationError describes rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DuplicateError is returned by Store.Create when an application already
// exists for the same student and posting.
type DuplicateError struct {
	ExistingID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("application already exists: %s", e.ExistingID)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
