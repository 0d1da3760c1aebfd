package sync

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// SyncRecorder counts sync outcomes for observability.
type SyncRecorder interface {
	RecordSync(outcome string)
}

// Handler exposes the role sync endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics SyncRecorder
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics SyncRecorder) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers sync routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sync", h.handleSync)
}

type syncResponse struct {
	Success      bool               `json:"success"`
	Roles        []string           `json:"roles"`
	HighestRole  *string            `json:"highestRole"`
	IsAuthorized bool               `json:"isAuthorized"`
	Permissions  rbac.PermissionSet `json:"permissions"`
	Profile      Profile            `json:"profile"`
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	bearer := bearerToken(r)
	result, err := h.service.Sync(r.Context(), bearer)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			h.recordSync("unauthorized")
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		h.recordSync("error")
		h.logger.Error("role sync failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.recordSync("ok")

	// Refresh the cached roles on the cookie session when one is present;
	// the resolver only ever sees the latest synced set.
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		names := make([]string, len(result.Roles))
		for i, role := range result.Roles {
			names[i] = string(role)
		}
		sess.SetRoles(names)
		sess.SetUser(result.UserID.String())
	}

	res := syncResponse{
		Success:      true,
		Roles:        roleNames(result.Roles),
		IsAuthorized: result.IsAuthorized,
		Permissions:  result.Permissions,
		Profile:      result.Profile,
	}
	if result.HasHighest {
		name := string(result.HighestRole)
		res.HighestRole = &name
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) recordSync(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordSync(outcome)
	}
}

func roleNames(roles []rbac.Role) []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return names
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
