package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode classifies a tracker failure.
type ErrorCode string

const (
	ErrLockTimeout  ErrorCode = "LOCK_TIMEOUT"  // transient, retried before surfacing
	ErrStorageIO    ErrorCode = "STORAGE_IO"    // transient read/write failure
	ErrUnwritable   ErrorCode = "UNWRITABLE"    // irrecoverable
	ErrInvalidInput ErrorCode = "INVALID_INPUT" // malformed payload
)

// TrackerError is a failure with a code and a human-readable reason.
type TrackerError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *TrackerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the operation later may succeed.
func (e *TrackerError) Transient() bool {
	return e.Code == ErrLockTimeout || e.Code == ErrStorageIO
}

// NewLockTimeout creates an error for a lock that could not be acquired in time.
func NewLockTimeout(path string, waited time.Duration) *TrackerError {
	return &TrackerError{
		Code:    ErrLockTimeout,
		Message: fmt.Sprintf("timed out after %s waiting for lock on %s", waited, path),
		Details: map[string]any{"path": path},
	}
}

// NewStorageIO creates an error for a failed read or write of path.
func NewStorageIO(path string, err error) *TrackerError {
	return &TrackerError{
		Code:    ErrStorageIO,
		Message: fmt.Sprintf("i/o failure on %s", path),
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

// NewUnwritable creates an error for a location that cannot be written at all.
func NewUnwritable(path string, err error) *TrackerError {
	return &TrackerError{
		Code:    ErrUnwritable,
		Message: fmt.Sprintf("cannot write to %s", path),
		Details: map[string]any{"path": path},
		Err:     err,
	}
}

// NewInvalidInput creates an error for a payload that could not be understood.
func NewInvalidInput(msg string, err error) *TrackerError {
	return &TrackerError{
		Code:    ErrInvalidInput,
		Message: msg,
		Err:     err,
	}
}

// Is checks if err is, or wraps, a TrackerError with the given code.
func Is(err error, code ErrorCode) bool {
	var tErr *TrackerError
	if stderrors.As(err, &tErr) {
		return tErr.Code == code
	}
	return false
}

// IsTransient checks if err is, or wraps, a transient TrackerError.
func IsTransient(err error) bool {
	var tErr *TrackerError
	if stderrors.As(err, &tErr) {
		return tErr.Transient()
	}
	return false
}
