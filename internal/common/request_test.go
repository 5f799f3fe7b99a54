package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required"`
	Count int    `json:"count" validate:"gte=1"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestBindJSON(t *testing.T) {
	v := NewValidator()

	var ok samplePayload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","count":2}`))
	require.NoError(t, BindJSON(req, v, &ok))
	require.Equal(t, samplePayload{Name: "x", Count: 2}, ok)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	err := BindJSON(req, v, &samplePayload{})
	require.ErrorIs(t, err, ErrEmptyBody)
	require.Equal(t, http.StatusBadRequest, StatusOf(err))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","count":2,"extra":true}`))
	require.Equal(t, "BAD_REQUEST", CodeOf(BindJSON(req, v, &samplePayload{})))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":0}`))
	err = BindJSON(req, v, &samplePayload{})
	require.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, map[string]any{"fields": []string{"name: required", "count: gte=1"}}, appErr.Details)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"count":0}`))
	require.NoError(t, BindJSON(req, nil, &samplePayload{}))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("database exploded"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, "INTERNAL", body.Code)
	require.Equal(t, "internal error", body.Message)

	rec = httptest.NewRecorder()
	WriteError(rec, &AppError{Code: "NOT_FOUND", Message: "product not found", HTTPStatus: http.StatusNotFound})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "product not found", decodeError(t, rec).Message)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`+"\n"+`oops}`))
	err := BindJSON(req, nil, &samplePayload{})
	rec = httptest.NewRecorder()
	WriteError(rec, err)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details, ok := decodeError(t, rec).Details.(map[string]any)
	require.True(t, ok)
	require.Contains(t, details, "offset")
}

func TestStatusAndCodeOf(t *testing.T) {
	require.Equal(t, http.StatusOK, StatusOf(nil))
	require.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
	require.Equal(t, "INTERNAL", CodeOf(errors.New("boom")))

	wrapped := errors.Join(errors.New("context"), &AppError{Code: "DUPLICATE_ID", HTTPStatus: http.StatusConflict})
	require.Equal(t, http.StatusConflict, StatusOf(wrapped))
	require.Equal(t, "DUPLICATE_ID", CodeOf(wrapped))

	inner := errors.New("inner")
	appErr := &AppError{Message: "outer", Err: inner}
	require.Equal(t, "inner", appErr.Error())
	require.ErrorIs(t, appErr, inner)
	require.Equal(t, "outer", (&AppError{Message: "outer"}).Error())
}

func TestParamIntAndClientIP(t *testing.T) {
	r := chi.NewRouter()
	var got int
	var gotErr error
	r.Get("/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = ParamInt(r, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories/12", nil))
	require.NoError(t, gotErr)
	require.Equal(t, 12, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories/twelve", nil))
	require.Equal(t, http.StatusBadRequest, StatusOf(gotErr))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	require.Equal(t, "203.0.113.7", ClientIP(req))
	req.RemoteAddr = "203.0.113.8"
	require.Equal(t, "203.0.113.8", ClientIP(req))
	require.Empty(t, ClientIP(nil))
}

func TestNewPagination(t *testing.T) {
	require.Equal(t, Pagination{Page: 1, PerPage: 20, TotalItems: 41, TotalPages: 3}, NewPagination(1, 20, 41))
	require.Equal(t, 0, NewPagination(1, 20, 0).TotalPages)
	require.Equal(t, 0, NewPagination(1, 0, 10).TotalPages)
}
