package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the payload under the "error" key of every failed response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as the JSON response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes v under the "data" key.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// JSONError writes {"error": {...}} with the given status.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
