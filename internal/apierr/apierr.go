package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func Forbidden(err error) *Error {
	return New(http.StatusForbidden, "forbidden", err)
}

func NotFound(err error) *Error {
	return New(http.StatusNotFound, "not_found", err)
}

func Unprocessable(err error) *Error {
	return New(http.StatusUnprocessableEntity, "unprocessable", err)
}

// StatusOf maps any error to an HTTP status, defaulting to 500 for errors
// that do not carry one.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Code != "" {
		return ae.Code
	}
	return "internal"
}
