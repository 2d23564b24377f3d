// Package domain defines the error catalog shared by warmd components.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a failure with a stable, machine-readable code.
//
// Codes follow the format WD-<AREA>-<NNNN>, where the numeric part mirrors
// the closest HTTP status (4090 conflict, 5030 unavailable, ...).
type DomainError struct {
	Code    string // Error code (e.g., "WD-CONN-4080")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// ClientMessage returns the text sent to a client after the "ERROR: " prefix.
// Codes are left out; clients get the message and details only.
func (e *DomainError) ClientMessage() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Startup Errors (LOCK, ROOT, PORT)
// Fail fast; the server leaves no partial state behind.
// ============================================================================

var (
	// ErrStartupConflict indicates another instance already owns the discovery file.
	ErrStartupConflict = NewDomainError("WD-LOCK-4090", "another server instance is already running")

	// ErrProjectRootMissing indicates no project root could be resolved.
	ErrProjectRootMissing = NewDomainError("WD-ROOT-4040", "project root not found")

	// ErrPortUnavailable indicates no port in the scan range could be bound.
	ErrPortUnavailable = NewDomainError("WD-PORT-5030", "no port available")
)

// ============================================================================
// Connection Errors (CONN, EXEC)
// Reported to the client; the server keeps running.
// ============================================================================

var (
	// ErrCapacityExceeded indicates the admission limit or queue is saturated.
	ErrCapacityExceeded = NewDomainError("WD-CONN-5030", "Server at capacity, please retry")

	// ErrReadTimeout indicates no complete request line arrived in time.
	ErrReadTimeout = NewDomainError("WD-CONN-4080", "read timeout")

	// ErrLineTooLong indicates the request line exceeded the configured maximum.
	ErrLineTooLong = NewDomainError("WD-CONN-4130", "request line too long")

	// ErrTransportFailure indicates the client went away mid-request.
	ErrTransportFailure = NewDomainError("WD-CONN-4990", "transport failure")

	// ErrExecutorFailure indicates the executor returned an error or panicked.
	ErrExecutorFailure = NewDomainError("WD-EXEC-5000", "execution failed")
)

// ============================================================================
// Argument Errors (ARG)
// Returned by executors for malformed commands.
// ============================================================================

var (
	// ErrUnknownCommand indicates the command name is not registered.
	ErrUnknownCommand = NewDomainError("WD-ARG-4040", "unknown command")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("WD-ARG-4000", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("WD-ARG-4001", "missing required argument")
)
