package manifest

import (
	"errors"
	"fmt"
)

// Error codes for manifest signing and verification failures. Every
// failure in this package is treated by callers as "deny the operation".
const (
	// ErrCodeSecretMissing indicates no signing secret is configured.
	ErrCodeSecretMissing = "MANIFEST_SECRET_MISSING"

	// ErrCodeSignatureInvalid indicates the manifest's own HMAC did not
	// match: the manifest itself cannot be trusted. This is a security
	// error, distinct from any file mismatch.
	ErrCodeSignatureInvalid = "MANIFEST_SIGNATURE_INVALID"

	// ErrCodeTampered indicates a governed file's live hash diverged from
	// its manifest entry.
	ErrCodeTampered = "MANIFEST_TAMPERED"

	// ErrCodeNotFound indicates the manifest source has no manifest.
	ErrCodeNotFound = "MANIFEST_NOT_FOUND"

	// ErrCodeMalformed indicates the manifest could not be parsed.
	ErrCodeMalformed = "MANIFEST_MALFORMED"

	// ErrCodeFileUnreadable indicates a governed file could not be read.
	ErrCodeFileUnreadable = "MANIFEST_FILE_UNREADABLE"
)

// Error is a manifest error with a stable code. Tamper errors identify the
// offending filename and nothing else.
type Error struct {
	// Code is one of the MANIFEST_* error codes.
	Code string

	// Message is a human-readable description.
	Message string

	// File names the offending file for tamper errors.
	File string

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
	// ErrSecretMissing is returned when no signing secret is configured.
	ErrSecretMissing = NewError(ErrCodeSecretMissing, "no signing secret configured")

	// ErrSignatureInvalid is returned when the manifest HMAC mismatches.
	ErrSignatureInvalid = NewError(ErrCodeSignatureInvalid, "manifest signature mismatch")

	// ErrTampered is returned when a governed file's hash mismatches.
	ErrTampered = NewError(ErrCodeTampered, "policy file hash mismatch")

	// ErrNotFound is returned when the manifest source has no manifest.
	ErrNotFound = NewError(ErrCodeNotFound, "manifest not found")

	// ErrMalformed is returned when the manifest cannot be parsed.
	ErrMalformed = NewError(ErrCodeMalformed, "manifest is malformed")
)
