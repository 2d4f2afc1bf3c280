// Package apperr defines the error taxonomy shared by the directory, image and credential services.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidRequest   Code = "INVALID_REQUEST"
	CodeInvalidMediaType Code = "INVALID_MEDIA_TYPE"
	CodePayloadTooLarge  Code = "PAYLOAD_TOO_LARGE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeInternal         Code = "INTERNAL"
)

// Sentinels for errors.Is checks. Matching is by code only.
var (
	ErrInvalidRequest   = &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	ErrInvalidMediaType = &Error{Code: CodeInvalidMediaType, Message: "invalid media type"}
	ErrPayloadTooLarge  = &Error{Code: CodePayloadTooLarge, Message: "payload too large"}
	ErrNotFound         = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized     = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrInternal         = &Error{Code: CodeInternal, Message: "internal error"}
)

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Safe to return to clients for non-internal codes
	Cause   error  // Wrapped underlying error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func InvalidRequest(message string) *Error   { return New(CodeInvalidRequest, message) }
func InvalidMediaType(message string) *Error { return New(CodeInvalidMediaType, message) }
func PayloadTooLarge(message string) *Error  { return New(CodePayloadTooLarge, message) }
func NotFound(message string) *Error         { return New(CodeNotFound, message) }
func Unauthorized(message string) *Error     { return New(CodeUnauthorized, message) }

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HTTPStatus maps err to the HTTP status code returned to clients.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeInvalidMediaType:
		return http.StatusUnsupportedMediaType
	case CodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to a client.
// Internal errors never leak their cause.
func PublicMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return fallback
}
