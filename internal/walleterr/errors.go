// Package walleterr defines the stable error taxonomy shared by every core
// component. Components return these sentinel kinds wrapped with context;
// the HTTP frontend is the only place that turns a Kind into a status code.
package walleterr

import (
	"errors"
	"fmt"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindValidation        Kind = "VALIDATION"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindAuthenticationFail Kind = "AUTHENTICATION_FAILED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindLocked             Kind = "LOCKED"
	KindChainUnavailable   Kind = "CHAIN_UNAVAILABLE"
	KindSubmissionFailed   Kind = "SUBMISSION_FAILED"
	KindCryptoError        Kind = "CRYPTO_ERROR"
	KindInternal           Kind = "INTERNAL"
)

// Error is a typed error carrying a stable Kind, a machine-readable Code
// (surfaced to API clients as the "code" field) and a human Message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %v", e.Code, e.Kind, e.cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a typed error with no wrapped cause.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches kind/code/message to an underlying cause without leaking the
// cause's text into Message (callers decide how much of cause to surface).
func Wrap(kind Kind, code, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to KindInternal when err does
// not carry one. Never inspects err's text to avoid classifying by message.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Common sentinel constructors used across components. Each pins a stable
// Code so the HTTP translator and clients can match on it.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Unauthorized(code string) *Error {
	// Message is intentionally generic: never distinguish "no such user"
	// from "wrong password" or "wrong KEK" from "corrupted".
	return New(KindUnauthorized, code, "invalid credentials")
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

func RateLimited(retryAfterSeconds int) *Error {
	return New(KindRateLimited, "RATE_LIMIT_EXCEEDED", fmt.Sprintf("retry after %ds", retryAfterSeconds))
}

func Locked(message string) *Error {
	return New(KindLocked, "ACCOUNT_LOCKED", message)
}

func Internal(cause error) *Error {
	return Wrap(KindInternal, "INTERNAL", "internal error", cause)
}
