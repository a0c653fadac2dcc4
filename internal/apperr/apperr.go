// Package apperr defines the typed failures raised by the service layer.
//
// Handlers never pick status codes themselves: they hand every error to
// httputil.RespondError, which reads the Kind of an *Error to decide how the
// failure is rendered. Anything that is not an *Error is treated as internal.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the error responder.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindInvalidOrExpiredToken
	KindDelivery
	KindNotFound
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInvalidOrExpiredToken:
		return "invalid_or_expired_token"
	case KindDelivery:
		return "delivery"
	case KindNotFound:
		return "not_found"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Error is a structured failure with a machine-readable code and a message
// that is safe to show to the client.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and code, so sentinels keep
// matching after Wrap attached a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.Err = cause
	return &cp
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(KindUnauthorized, code, message)
}

func Forbidden(code, message string) *Error {
	return New(KindForbidden, code, message)
}

func InvalidOrExpiredToken(code, message string) *Error {
	return New(KindInvalidOrExpiredToken, code, message)
}

func Delivery(code, message string) *Error {
	return New(KindDelivery, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func TooManyRequests(code, message string) *Error {
	return New(KindTooManyRequests, code, message)
}

// KindOf reports the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
