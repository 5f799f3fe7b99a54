package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ErrEmptyBody is returned by DecodeJSON when the request has no payload.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON strictly decodes the request body into dst.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// BindJSON decodes and validates a payload, returning an AppError on failure.
func BindJSON(r *http.Request, v *validator.Validate, dst any) error {
	if err := DecodeJSON(r, dst); err != nil {
		return &AppError{Code: "BAD_REQUEST", Message: "invalid payload", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(dst); err != nil {
		return &AppError{
			Code:       "VALIDATION_FAILED",
			Message:    "payload failed validation",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Details:    map[string]any{"fields": ValidationFields(err)},
		}
	}
	return nil
}

// ValidationFields flattens validator errors into "field: rule" strings.
func ValidationFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if p := fe.Param(); p != "" {
			rule += "=" + p
		}
		fields = append(fields, fmt.Sprintf("%s: %s", lowerFirst(fe.Field()), rule))
	}
	return fields
}

// WriteError renders err with the canonical error shape. AppErrors keep
// their code and status; anything else is reported as INTERNAL.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	message := appErr.Message
	if message == "" {
		message = "internal error"
	}
	details := appErr.Details
	var syntaxErr *json.SyntaxError
	if details == nil && errors.As(appErr.Err, &syntaxErr) {
		details = map[string]any{"offset": syntaxErr.Offset}
	}
	JSONError(w, StatusOf(appErr), CodeOf(appErr), message, details)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
