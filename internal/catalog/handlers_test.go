package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pricing/internal/catalog"
)

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
		TotalPages int `json:"total_pages"`
	} `json:"pagination"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := newService(t)
	require.NoError(t, catalog.SeedDemo(context.Background(), svc))
	r := chi.NewRouter()
	catalog.NewHandler(catalog.HandlerConfig{Service: svc}).Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestProductsEndpointPaginates(t *testing.T) {
	h := newRouter(t)

	rec, env := do(t, h, http.MethodGet, "/products?limit=2&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	require.Equal(t, 2, env.Pagination.Page)
	require.Equal(t, 2, env.Pagination.PerPage)
	require.Equal(t, 3, env.Pagination.TotalItems)
	require.Equal(t, 2, env.Pagination.TotalPages)

	var items []catalog.ProductView
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	require.Equal(t, "HP001", items[0].ID)

	rec, env = do(t, h, http.MethodGet, "/products?variant=unknown", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", env.Error.Code)
	require.Equal(t, "variant", env.Error.Details["field"])
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	h := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/products", `{"id":"MG001","variant":"physical","name":"Mug","price":300,"quantity":12,"physical":{"weightKg":0.4,"shippingPolicyId":"flat-rate"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/products/MG001", rec.Header().Get("Location"))
	var created catalog.ProductView
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "Flat Rate Shipping", created.Physical.ShippingPolicy)
	require.Equal(t, catalog.StockIn, created.StockStatus)

	rec, env = do(t, h, http.MethodPost, "/products", `{"id":"MG001","name":"Mug again"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "DUPLICATE_ID", env.Error.Code)

	rec, env = do(t, h, http.MethodPut, "/products/MG001", `{"price":-1}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/products/MG001/sell", `{"amount":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var sold catalog.ProductView
	require.NoError(t, json.Unmarshal(env.Data, &sold))
	require.Equal(t, 10, sold.Quantity)
	require.Equal(t, catalog.StockLow, sold.StockStatus)

	rec, env = do(t, h, http.MethodPost, "/products/MG001/stock", `{"amount":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = do(t, h, http.MethodPut, "/products/MG001/shipping-policy", `{"shippingPolicyId":"drone"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "UNKNOWN_SHIPPING_POLICY", env.Error.Code)

	rec, _ = do(t, h, http.MethodDelete, "/products/MG001", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/products/MG001", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestCreateProductRejectsMalformedPayloads(t *testing.T) {
	h := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/products", `{"name":"Lamp","colour":"red"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/products", `{"name":"Lamp",`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "BAD_REQUEST", env.Error.Code)

	rec, env = do(t, h, http.MethodPost, "/products", `{"name":"Lamp","price":2000000}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	require.Contains(t, env.Error.Details["fields"], "price: lte=1000000")
}

func TestCategoryEndpoints(t *testing.T) {
	h := newRouter(t)

	rec, env := do(t, h, http.MethodPost, "/categories", `{"name":"Audio"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var audio catalog.CategoryView
	require.NoError(t, json.Unmarshal(env.Data, &audio))
	require.Equal(t, 2, audio.ID)

	rec, env = do(t, h, http.MethodPut, "/categories/2/products/HP001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &audio))
	require.Equal(t, []string{"HP001"}, audio.ProductIDs)

	rec, env = do(t, h, http.MethodPut, "/categories/abc/products/HP001", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "id", env.Error.Details["field"])

	rec, env = do(t, h, http.MethodDelete, "/categories/1/products/HP001", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, env = do(t, h, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []catalog.CategoryView
	require.NoError(t, json.Unmarshal(env.Data, &cats))
	require.Len(t, cats, 2)
	require.Equal(t, []string{"LP001", "EB001"}, cats[0].ProductIDs)

	rec, env = do(t, h, http.MethodGet, "/catalog/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats catalog.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	require.Equal(t, 3, stats.LiveProducts)
	require.Equal(t, 2, stats.Categories)
}

func TestHandlerWithoutServiceReportsInternal(t *testing.T) {
	r := chi.NewRouter()
	catalog.NewHandler(catalog.HandlerConfig{}).Routes(r)
	rec, env := do(t, r, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "INTERNAL", env.Error.Code)
}
