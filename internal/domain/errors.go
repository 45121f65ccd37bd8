package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies every failure the share protocols can surface.
// Each kind maps to exactly one HTTP status and one stable code.
type Kind int

const (
	KindInternal Kind = iota
	KindRateLimitExceeded
	KindMalformedInput
	KindValidationFailed
	KindAuthenticationFailed
	KindConflict
	KindNotFound
	KindExpired
)

// Code is the machine readable tag returned to clients and stored as the
// audit failure reason. Codes are never renamed.
type Code string

const (
	CodeRateLimit        Code = "RATE_LIMIT"
	CodeMalformedInput   Code = "MALFORMED_INPUT"
	CodeValidationFailed Code = "VALIDATION_FAILED"
	CodeInvalidSignature Code = "INVALID_SIGNATURE"
	CodeDuplicateShareID Code = "DUPLICATE_SHARE_ID"
	CodeNotFound         Code = "NOT_FOUND"
	CodeExpired          Code = "EXPIRED"
	CodeInternal         Code = "INTERNAL_ERROR"
)

var kindCodes = map[Kind]Code{
	KindInternal:             CodeInternal,
	KindRateLimitExceeded:    CodeRateLimit,
	KindMalformedInput:       CodeMalformedInput,
	KindValidationFailed:     CodeValidationFailed,
	KindAuthenticationFailed: CodeInvalidSignature,
	KindConflict:             CodeDuplicateShareID,
	KindNotFound:             CodeNotFound,
	KindExpired:              CodeExpired,
}

// Code returns the stable code for k.
func (k Kind) Code() Code {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return CodeInternal
}

func (k Kind) String() string { return string(k.Code()) }

// FieldError describes one offending field of a rejected payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the explicit result value returned by the protocols.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError

	// RetryAfter is only set for KindRateLimitExceeded.
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an *Error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// WrapError builds an *Error of the given kind around a cause.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal for
// anything that is not a *Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
