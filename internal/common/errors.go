package common

import (
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusOf reports the HTTP status err renders with. Errors that carry no
// AppError are internal failures.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	if err == nil {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// CodeOf reports the machine-readable code err renders with.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return "INTERNAL"
}
