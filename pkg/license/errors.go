package license

import (
	"errors"
	"fmt"
)

// Error codes for license authorization failures. These are stable
// identifiers for logging and telemetry, not HTTP status codes.
const (
	// ErrCodeMalformed indicates the token structure could not be parsed.
	ErrCodeMalformed = "LICENSE_MALFORMED"

	// ErrCodeSignatureInvalid indicates signature verification failed.
	ErrCodeSignatureInvalid = "LICENSE_SIGNATURE_INVALID"

	// ErrCodeInvalidToken indicates the authority rejected the token.
	ErrCodeInvalidToken = "LICENSE_INVALID_TOKEN"

	// ErrCodeExpired indicates the license exp is in the past.
	ErrCodeExpired = "LICENSE_EXPIRED"

	// ErrCodeRevoked indicates the authority explicitly revoked the license.
	ErrCodeRevoked = "LICENSE_REVOKED"

	// ErrCodeNetworkUnavailable indicates the authority was unreachable
	// and no offline grace applied.
	ErrCodeNetworkUnavailable = "LICENSE_NETWORK_UNAVAILABLE"

	// ErrCodeTrustAnchorMissing indicates no trust anchor is configured
	// for local validation.
	ErrCodeTrustAnchorMissing = "LICENSE_TRUST_ANCHOR_MISSING"
)

// Error is a license authorization error with a stable code.
type Error struct {
	// Code is one of the LICENSE_* error codes.
	Code string

	// Message is a human-readable description. It never contains the raw
	// token; use a token hash instead.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target error code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError creates a new Error that wraps an underlying error.
func WrapError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Predefined sentinel errors for errors.Is checks.
var (
	// ErrMalformed is returned when the token structure is invalid.
	ErrMalformed = NewError(ErrCodeMalformed, "token structure is invalid")

	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = NewError(ErrCodeSignatureInvalid, "signature verification failed")

	// ErrInvalidToken is returned when the authority rejects the token.
	ErrInvalidToken = NewError(ErrCodeInvalidToken, "token rejected by authority")

	// ErrExpired is returned when the license has expired.
	ErrExpired = NewError(ErrCodeExpired, "license has expired")

	// ErrRevoked is returned when the license has been revoked.
	ErrRevoked = NewError(ErrCodeRevoked, "license has been revoked")

	// ErrNetworkUnavailable is returned when the authority is unreachable
	// with no applicable grace.
	ErrNetworkUnavailable = NewError(ErrCodeNetworkUnavailable, "license authority unreachable")

	// ErrTrustAnchorMissing is returned when no trust anchor is configured.
	ErrTrustAnchorMissing = NewError(ErrCodeTrustAnchorMissing, "no trust anchor configured")
)

// GetErrorCode extracts the code from a license Error, or returns "".
func GetErrorCode(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}
