// Package apperr provides the error taxonomy shared by services and handlers.
// Every error that should reach a client with a specific status is an *Error;
// anything else is treated as unexpected and rendered as a 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Unexpected Kind = iota
	Authentication
	Authorization
	NotFound
	Validation
	Conflict
	BadRequest
	RateLimited
)

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusUnprocessableEntity
	case Conflict:
		return http.StatusConflict
	case BadRequest:
		return http.StatusBadRequest
	case RateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case BadRequest:
		return "bad_request"
	case RateLimited:
		return "rate_limited"
	}
	return "unexpected"
}

// Error is a client-facing error. Details carries the full list of
// violations for Validation errors.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, apperr.ErrNotFound) works for any
// not-found message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t == e || (t.Message == "" && t.Kind == e.Kind)
}

// Kind sentinels for errors.Is.
var (
	ErrAuthentication = &Error{Kind: Authentication}
	ErrAuthorization  = &Error{Kind: Authorization}
	ErrNotFound       = &Error{Kind: NotFound}
	ErrValidation     = &Error{Kind: Validation}
	ErrConflict       = &Error{Kind: Conflict}
)

func Unauthorized(msg string) *Error { return &Error{Kind: Authentication, Message: msg} }

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "You are not authorized to perform this action"
	}
	return &Error{Kind: Authorization, Message: msg}
}

// NotFoundf builds a not-found error for a resource name, e.g. "Task".
func NotFoundf(resource string) *Error {
	return &Error{Kind: NotFound, Message: resource + " not found"}
}

// Invalid wraps the full list of field violations.
func Invalid(details ...string) *Error {
	return &Error{Kind: Validation, Message: "Validation failed", Details: details}
}

func ConflictMsg(msg string) *Error { return &Error{Kind: Conflict, Message: msg} }

func BadRequestMsg(msg string) *Error { return &Error{Kind: BadRequest, Message: msg} }

// Internal wraps an unexpected error with context.
func Internal(msg string, err error) *Error {
	return &Error{Kind: Unexpected, Message: msg, Err: err}
}

// From extracts the *Error in err's chain. Ok is false for plain errors,
// which callers must treat as unexpected.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns Unexpected for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := From(err); ok {
		return e.Kind
	}
	return Unexpected
}
