package apperror

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	ErrOrderRejected       ErrorCode = "ORDER_REJECTED"
	ErrPaymentSessionError ErrorCode = "PAYMENT_SESSION_ERROR"
	ErrLookupNotFound      ErrorCode = "LOOKUP_NOT_FOUND"
	ErrValidation          ErrorCode = "VALIDATION_ERROR"
)

// Reasons carried in Details["reason"] for ORDER_REJECTED.
const (
	ReasonTableNotOpen = "TABLE_NOT_OPEN"
	ReasonEmptyCart    = "EMPTY_CART"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, status int, details map[string]any, cause error) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details, Err: cause}
}

func OrderRejected(reason string, message string) *Error {
	return newError(ErrOrderRejected, message, http.StatusConflict, map[string]any{"reason": reason}, nil)
}

func PaymentSession(message string, cause error) *Error {
	return newError(ErrPaymentSessionError, message, http.StatusInternalServerError, nil, cause)
}

func LookupNotFound(message string, cause error) *Error {
	return newError(ErrLookupNotFound, message, http.StatusNotFound, nil, cause)
}

func Validation(message string) *Error {
	return newError(ErrValidation, message, http.StatusBadRequest, nil, nil)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// Reason returns Details["reason"] when present.
func (e *Error) Reason() string {
	if e == nil || e.Details == nil {
		return ""
	}
	if v, ok := e.Details["reason"].(string); ok {
		return v
	}
	return ""
}
