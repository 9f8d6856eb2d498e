package catchup

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a business-rule failure. Codes are stable and part of the
// API contract; messages are safe to show to the user verbatim.
type Code string

const (
	CodeNotFound         Code = "not_found"
	CodeIneligible       Code = "ineligible"
	CodeDuplicate        Code = "duplicate_registration"
	CodeSlotFull         Code = "slot_full"
	CodeAlreadyProcessed Code = "already_processed"
	CodeValidation       Code = "validation_error"
)

// Error is a user-displayable business failure.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError unwraps err into a *Error when it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps a domain error to a response status. Business rejections
// stay in the 4xx range so the client keeps its session; anything unknown is
// a 500.
func HTTPStatus(err error) int {
	e, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeIneligible:
		return http.StatusForbidden
	case CodeDuplicate, CodeSlotFull, CodeAlreadyProcessed:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
