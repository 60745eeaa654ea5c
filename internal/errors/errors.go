// Package errors provides domain errors with stable codes.
//
// Services return these errors; handlers map them to HTTP responses:
//
//	if errors.Is(err, errors.ErrNotRoomMaker) {
//	    ...
//	}
//
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    respondError(w, domainErr.Message, domainErr.HTTPStatus())
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes returned to callers.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeAlreadyInEvent Code = "ALREADY_IN_EVENT"
	CodeNotRoomMaker   Code = "NOT_ROOM_MAKER"
	CodeEventNotActive Code = "EVENT_NOT_ACTIVE"
	CodeInvalidDate    Code = "INVALID_DATE"
	CodeGeneration     Code = "GENERATION_ERROR"
	CodeStorage        Code = "STORAGE_ERROR"
	CodeValidation     Code = "VALIDATION"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyInEvent, CodeEventNotActive:
		return http.StatusConflict
	case CodeNotRoomMaker:
		return http.StatusForbidden
	case CodeInvalidDate, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeGeneration:
		return http.StatusUnprocessableEntity
	case CodeStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyInEvent = &Error{Code: CodeAlreadyInEvent, Message: "user already belongs to an event"}
	ErrNotRoomMaker   = &Error{Code: CodeNotRoomMaker, Message: "only the room maker can do this"}
	ErrEventNotActive = &Error{Code: CodeEventNotActive, Message: "event is not active"}
	ErrInvalidDate    = &Error{Code: CodeInvalidDate, Message: "invalid date"}
	ErrGeneration     = &Error{Code: CodeGeneration, Message: "barcode generation failed"}
	ErrStorage        = &Error{Code: CodeStorage, Message: "object storage failure"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrUnauthorized   = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// InvalidDate creates an invalid date error.
func InvalidDate(msg string) *Error {
	return &Error{Code: CodeInvalidDate, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Storage wraps an object store failure.
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: msg, cause: cause}
}

// Generation wraps a barcode generator failure.
func Generation(msg string, cause error) *Error {
	return &Error{Code: CodeGeneration, Message: msg, cause: cause}
}

// Internal wraps an unexpected failure.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}
