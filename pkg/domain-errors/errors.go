// Package domainerrors provides coded errors shared across the core.
//
// Services create errors with New/Wrap and callers branch on codes with
// HasCode. The transport layer translates codes to HTTP statuses with
// ToHTTPStatus; nothing below transport should reason about HTTP.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for programmatic handling.
type Code string

const (
	// Generic codes.
	CodeValidation   Code = "validation"
	CodeInvalidInput Code = "invalid_input"
	CodeBadRequest   Code = "bad_request"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
	// CodeInvariantViolation marks a broken domain invariant, always a
	// programming or data-corruption bug rather than bad input.
	CodeInvariantViolation Code = "invariant_violation"

	// Credential layer.
	CodeTokenExpired   Code = "token_expired"
	CodeTokenMalformed Code = "token_malformed"
	CodeSigningKey     Code = "signing_key"

	// Tenant resolution layer.
	CodeTenantMissing  Code = "tenant_context_missing"
	CodeTenantMismatch Code = "tenant_mismatch"
	CodeOrgSuspended   Code = "organization_suspended"

	// Authorization layer.
	CodeInsufficientRole Code = "insufficient_role"
	CodePlatformOnly     Code = "platform_only"

	// Data access layer. Surfaced as not-found so one tenant cannot probe
	// for the existence of another tenant's records.
	CodeCrossTenant Code = "cross_tenant_access"

	// Rate limiting.
	CodeRateLimited Code = "rate_limited"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
	}
	return false
}

// Is delegates to errors.Is so call sites can use one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// GetCode returns the outermost code in the chain, or CodeInternal when err
// is not a domain error.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// GetMessage returns the outermost domain-error message, or a generic one
// when err is not a domain error.
func GetMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a code to the status the transport layer should emit.
// CodeCrossTenant maps to 404: answering 403 would confirm the record
// exists in another tenant.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized, CodeTokenExpired, CodeTokenMalformed, CodeTenantMissing:
		return http.StatusUnauthorized
	case CodeForbidden, CodeTenantMismatch, CodeOrgSuspended, CodeInsufficientRole, CodePlatformOnly:
		return http.StatusForbidden
	case CodeNotFound, CodeCrossTenant:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
