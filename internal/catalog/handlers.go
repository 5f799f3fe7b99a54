package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pricing/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.Products)
	r.Post("/products", h.CreateProduct)
	r.Get("/products/{id}", h.Product)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/products/{id}/stock", h.AddStock)
	r.Post("/products/{id}/sell", h.Sell)
	r.Post("/products/{id}/discount", h.Discount)
	r.Put("/products/{id}/shipping-policy", h.SetShippingPolicy)
	r.Get("/categories", h.Categories)
	r.Post("/categories", h.CreateCategory)
	r.Put("/categories/{id}/products/{productId}", h.AddToCategory)
	r.Delete("/categories/{id}/products/{productId}", h.RemoveFromCategory)
	r.Get("/catalog/stats", h.Stats)
}

type amountPayload struct {
	Amount int `json:"amount" validate:"gt=0"`
}

type discountPayload struct {
	Percent float64 `json:"percent" validate:"gte=0,lte=90"`
}

type shippingPolicyPayload struct {
	ShippingPolicyID string `json:"shippingPolicyId" validate:"required"`
}

// Products handles GET /api/v1/products with variant filter and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.NewPagination(result.Page, result.Limit, result.Total),
	})
}

// Product handles GET /api/v1/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	view, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload ProductInput
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.CreateProduct(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/products/"+view.ID)
	common.Data(w, http.StatusCreated, view)
}

// UpdateProduct handles PUT /api/v1/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload ProductUpdate
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddStock handles POST /api/v1/products/{id}/stock.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload amountPayload
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.AddStock(r.Context(), chi.URLParam(r, "id"), payload.Amount)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Sell handles POST /api/v1/products/{id}/sell.
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload amountPayload
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.Sell(r.Context(), chi.URLParam(r, "id"), payload.Amount)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Discount handles POST /api/v1/products/{id}/discount.
func (h *Handler) Discount(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload discountPayload
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.ApplyDiscount(r.Context(), chi.URLParam(r, "id"), payload.Percent)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// SetShippingPolicy handles PUT /api/v1/products/{id}/shipping-policy.
func (h *Handler) SetShippingPolicy(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload shippingPolicyPayload
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.SetShippingPolicy(r.Context(), chi.URLParam(r, "id"), payload.ShippingPolicyID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rows)
}

// CreateCategory handles POST /api/v1/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var payload CategoryInput
	if err := common.BindJSON(r, h.validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.CreateCategory(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// AddToCategory handles PUT /api/v1/categories/{id}/products/{productId}.
func (h *Handler) AddToCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	categoryID, err := common.ParamInt(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.AddToCategory(r.Context(), categoryID, chi.URLParam(r, "productId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// RemoveFromCategory handles DELETE /api/v1/categories/{id}/products/{productId}.
func (h *Handler) RemoveFromCategory(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	categoryID, err := common.ParamInt(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.service.RemoveFromCategory(r.Context(), categoryID, chi.URLParam(r, "productId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// Stats handles GET /api/v1/catalog/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	common.Data(w, http.StatusOK, h.service.Stats(r.Context()))
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

