package domain

import (
	"errors"
	"fmt"
)

// DomainError is a coded error. Codes look like "AR-STOR-5001": product,
// area, then an HTTP-flavoured number that the HTTP layer maps to a status.
type DomainError struct {
	Code    string // Error code (e.g., "AR-STOR-5001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code, so wrapped copies still match
// their sentinel.
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

// IsDomainError reports whether err is a DomainError with the given code.
// An empty code matches any DomainError.
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

// Storage errors.
var (
	// ErrMount means the backend could not be mounted, even after formatting.
	ErrMount = NewDomainError("AR-STOR-5030", "storage mount failed")

	// ErrIO means the settings file is missing, unreadable or unwritable.
	ErrIO = NewDomainError("AR-STOR-5001", "storage io failed")

	// ErrBootstrap means the first-boot default settings could not be written.
	ErrBootstrap = NewDomainError("AR-STOR-5002", "writing default settings failed")
)

// Settings errors.
var (
	// ErrEndpointLimit means the endpoint list is already at MaxEndpoints.
	ErrEndpointLimit = NewDomainError("AR-SET-4001", "endpoint limit reached")

	// ErrEndpointIndex means an endpoint index is outside the current list.
	ErrEndpointIndex = NewDomainError("AR-SET-4040", "endpoint index out of range")

	// ErrPrecondition means the caller's fingerprint no longer matches.
	ErrPrecondition = NewDomainError("AR-SET-4120", "settings changed since last read")
)

// Request and system errors.
var (
	ErrInvalidArgument = NewDomainError("AR-ARG-1001", "invalid argument")
	ErrNotFound        = NewDomainError("AR-ARG-4040", "not found")
	ErrUnauthorized    = NewDomainError("AR-AUTH-4010", "authentication required")
	ErrRateLimited     = NewDomainError("AR-SYS-4290", "too many requests")
	ErrInternal        = NewDomainError("AR-SYS-5000", "internal error")
	ErrNotOpened       = NewDomainError("AR-SYS-5031", "settings store not opened")
	ErrNotSupported    = NewDomainError("AR-SYS-5010", "not supported by this backend")
)
