package status

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/norulespvp/portal/internal/platform/httpx"
)

// Handler exposes the public server status endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// MountRoutes registers status routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/status", h.handleStatus)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Current(r.Context()))
}
