// Package errs holds the error kinds shared by every domain service. Services wrap one of the
// sentinels with a human message; handlers map the sentinel to a status code with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrNotAuthorized         = errors.New("not authorized")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrConfirmationRequired  = errors.New("confirmation required")
	ErrConflict              = errors.New("conflict")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrPartialBatchFailure   = errors.New("partial batch failure")
)

type kindError struct {
	kind    error
	message string
}

func (e *kindError) Error() string {
	return e.message
}

func (e *kindError) Unwrap() error {
	return e.kind
}

func wrap(kind error, format string, args ...any) error {
	return &kindError{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func NotAuthorized(format string, args ...any) error {
	return wrap(ErrNotAuthorized, format, args...)
}

func RateLimited(format string, args ...any) error {
	return wrap(ErrRateLimited, format, args...)
}

func ConfirmationRequired(format string, args ...any) error {
	return wrap(ErrConfirmationRequired, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrConflict, format, args...)
}

// Partial reports that failed of total items in a batch did not complete.
func Partial(failed, total int) error {
	return fmt.Errorf("%w: %d of %d items failed", ErrPartialBatchFailure, failed, total)
}

// Unavailable marks err as coming from an unreachable store. The original error stays in the chain.
func Unavailable(dependency string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", dependency, ErrDependencyUnavailable, err)
}

// Message returns the human part of a kind error, falling back to err.Error().
func Message(err error) string {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.message
	}
	return err.Error()
}
