package invoke

import (
	"errors"
	"fmt"
)

// FatalError represents a failure of the harness infrastructure itself,
// as opposed to a non-zero exit status from the invoked tool (which is a
// normal, comparable outcome).
//
// Fatal errors include:
//   - Start failure: executable missing or not executable
//   - Timeout: invocation exceeded its deadline and was killed
type FatalError struct {
	// Code identifies the error category.
	Code FatalErrorCode

	// Message is a human-readable description.
	Message string

	// Executable is the path that was being invoked.
	Executable string

	// Err is the underlying error.
	Err error
}

// FatalErrorCode categorizes harness-fatal invocation errors.
type FatalErrorCode string

const (
	// ErrCodeStartFailed indicates the executable could not be found or
	// started.
	ErrCodeStartFailed FatalErrorCode = "START_FAILED"

	// ErrCodeTimeout indicates the invocation was killed after exceeding
	// its deadline.
	ErrCodeTimeout FatalErrorCode = "TIMEOUT"
)

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Executable != "" {
		return fmt.Sprintf("%s: %s (executable=%s)", e.Code, e.Message, e.Executable)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error is any harness-fatal invocation error.
// Uses errors.As to handle wrapped errors.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// IsStartFailure returns true if the error is a start failure.
func IsStartFailure(err error) bool {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeStartFailed
	}
	return false
}

// IsTimeout returns true if the error is an invocation timeout.
func IsTimeout(err error) bool {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeTimeout
	}
	return false
}
