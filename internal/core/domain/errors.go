package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form PH-<AREA>-<NNNN>, where the last four digits start with
// the HTTP status class the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "PH-SESS-4040")
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

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Session Errors (SESS)
// ============================================================================

var (
	// ErrSessionNotFound indicates the token is unknown.
	ErrSessionNotFound = NewDomainError("PH-SESS-4040", "session not found")

	// ErrSessionExpired indicates the session outlived its TTL.
	ErrSessionExpired = NewDomainError("PH-SESS-4041", "session expired")

	// ErrUnauthenticated indicates the request carries no valid session.
	ErrUnauthenticated = NewDomainError("PH-SESS-4010", "authentication required")
)

// ============================================================================
// Peer Errors (PEER)
// ============================================================================

var (
	// ErrPeerNotFound indicates the peer is not in the directory or connected set.
	ErrPeerNotFound = NewDomainError("PH-PEER-4040", "peer not found")

	// ErrPeerValidation indicates a registration with an unusable name or port.
	ErrPeerValidation = NewDomainError("PH-PEER-4001", "invalid peer record")

	// ErrDeliveryFailed indicates the relay could not dial or write to the peer.
	ErrDeliveryFailed = NewDomainError("PH-PEER-5020", "message delivery failed")
)

// ============================================================================
// Credential Errors (CRED)
// ============================================================================

var (
	// ErrInvalidCredentials indicates an unknown user or a wrong password.
	ErrInvalidCredentials = NewDomainError("PH-CRED-4010", "invalid username or password")

	// ErrCredentialConflict indicates the username is already registered.
	ErrCredentialConflict = NewDomainError("PH-CRED-4090", "username already exists")

	// ErrCredentialNotFound indicates the username is not registered.
	ErrCredentialNotFound = NewDomainError("PH-CRED-4040", "credential not found")

	// ErrCredentialValidation indicates an empty or oversized username or password.
	ErrCredentialValidation = NewDomainError("PH-CRED-4001", "invalid credential")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("PH-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("PH-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request payload.
	ErrBadRequest = NewDomainError("PH-SYS-4000", "bad request")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("PH-SYS-4290", "too many requests")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("PH-ARG-4002", "missing required argument")
)
