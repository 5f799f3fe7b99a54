package policy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-pricing/internal/common"
)

// Handler lists the configured policies.
type Handler struct {
	directory *Directory
}

// NewHandler constructs a Handler.
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

// Routes mounts the listing endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/promotions", h.Promotions)
	r.Get("/taxes", h.Taxes)
	r.Get("/shipping-policies", h.ShippingPolicies)
}

// Promotions handles GET /api/v1/promotions.
func (h *Handler) Promotions(w http.ResponseWriter, _ *http.Request) {
	h.list(w, (*Directory).PromotionDescriptors)
}

// Taxes handles GET /api/v1/taxes.
func (h *Handler) Taxes(w http.ResponseWriter, _ *http.Request) {
	h.list(w, (*Directory).TaxDescriptors)
}

// ShippingPolicies handles GET /api/v1/shipping-policies.
func (h *Handler) ShippingPolicies(w http.ResponseWriter, _ *http.Request) {
	h.list(w, (*Directory).ShippingDescriptors)
}

func (h *Handler) list(w http.ResponseWriter, fn func(*Directory) []Descriptor) {
	if h.directory == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "policy directory not configured", nil)
		return
	}
	common.Data(w, http.StatusOK, fn(h.directory))
}
