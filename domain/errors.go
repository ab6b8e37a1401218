package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Status returns the numeric status carried by faults of this code.
func (c ErrorCode) Status() int {
	switch c {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalid:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Fault constructors used by the use cases.
func ValidationFault(message string) *Error { return NewError(ErrCodeInvalid, message) }
func NotFoundFault(message string) *Error   { return NewError(ErrCodeNotFound, message) }
func PermissionFault(message string) *Error { return NewError(ErrCodeForbidden, message) }
func InternalFault(message string, err error) *Error {
	return WrapError(ErrCodeInternal, message, err)
}

// Common domain errors.
var (
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound    = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload  = NewError(ErrCodeInvalid, "invalid payload")
	ErrDuplicate       = NewError(ErrCodeConflict, "already exists")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// StatusOf returns the status of the outermost domain error in the chain,
// falling back to 500 for anything unclassified.
func StatusOf(err error) (int, ErrorCode) {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code.Status(), dErr.Code
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// PublicMessage is the message safe to show to callers: the outermost domain
// message without the wrapped storage cause.
func PublicMessage(err error) string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Message
	}
	return "internal error"
}

// Registration conflicts reported by the user store.
var (
	ErrEmailTaken    = NewError(ErrCodeConflict, "email already registered")
	ErrUsernameTaken = NewError(ErrCodeConflict, "username already taken")
)
