package domain

import "errors"

// Error kinds. Every business-rule failure returned by the core wraps one of these.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrWindowExpired = errors.New("submission window expired")
	ErrValidation    = errors.New("validation error")
)

// Error is a business-rule failure with a caller-facing message.
// errors.Is matches both the error itself and its kind.
type Error struct {
	Kind    error
	Message string
}

// NewError creates a business error of the given kind
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation is shorthand for a ValidationError with message
func Validation(message string) *Error {
	return NewError(ErrValidation, message)
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// KindOf returns the kind sentinel of err, or nil when err is not a business error
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrUnauthorized, ErrForbidden, ErrConflict,
		ErrInvalidState, ErrWindowExpired, ErrValidation,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindCode returns a stable machine-readable code for an error kind
func KindCode(kind error) string {
	switch kind {
	case ErrNotFound:
		return "not_found"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrForbidden:
		return "forbidden"
	case ErrConflict:
		return "conflict"
	case ErrInvalidState:
		return "invalid_state"
	case ErrWindowExpired:
		return "window_expired"
	case ErrValidation:
		return "validation_error"
	default:
		return "internal_error"
	}
}
