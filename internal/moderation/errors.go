package moderation

import (
	"errors"
	"fmt"
)

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrSanctionNotFound  = errors.New("sanction not found")
	ErrAlreadyTerminal   = errors.New("already handled")
	ErrNotTerminal       = errors.New("report is already open")
	ErrDuplicateReport   = errors.New("you have already reported this content")
	ErrRateLimitExceeded = errors.New("too many reports, try again later")
	ErrValidation        = errors.New("validation failed")
	ErrDependencyFailure = errors.New("dependency failure")

	// ErrStateConflict is returned by repositories when a conditional state
	// update matched the row but not the expected source state.
	ErrStateConflict = errors.New("state changed concurrently")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// DependencyError wraps a failed must-succeed persistence call. The
// operation that produced it was aborted before any later step ran.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyFailure
}

var domainErrors = []error{
	ErrReportNotFound,
	ErrSanctionNotFound,
	ErrAlreadyTerminal,
	ErrNotTerminal,
	ErrDuplicateReport,
	ErrRateLimitExceeded,
	ErrValidation,
	ErrStateConflict,
	ErrDependencyFailure,
}

// dependency wraps err as a DependencyError unless it already carries a
// domain meaning.
func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return &DependencyError{Op: op, Err: err}
}
