package checkout

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pricing/internal/common"
)

// Handler exposes the quote endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Routes mounts the quote endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/quotes", h.Quote)
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := common.BindJSON(r, h.Validate, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.Svc.Quote(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, quote)
}
