package roles

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// Handler wires the role management endpoints for the admin console.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbacMW    rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbacMW:    rbacMW,
		validator: validator.New(),
	}
}

// MountRoutes registers role management routes. Viewing staff requires
// admin access; changing assignments requires role management authority.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbacMW.RequireAdmin()).Get("/", h.handleListStaff)
	r.With(h.rbacMW.Require(rbac.CapManageRoles)).Post("/", h.handleAssign)
	r.With(h.rbacMW.Require(rbac.CapManageRoles)).Delete("/", h.handleRemove)
}

type staffEntryResponse struct {
	UserID          string `json:"user_id"`
	Role            string `json:"role"`
	RoleLabel       string `json:"role_label"`
	AssignedAt      string `json:"assigned_at"`
	DiscordUsername string `json:"discord_username"`
	DiscordAvatar   string `json:"discord_avatar,omitempty"`
}

func (h *Handler) handleListStaff(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListStaff(r.Context())
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]staffEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = staffEntryResponse{
			UserID:          e.UserID.String(),
			Role:            string(e.Role),
			RoleLabel:       e.Role.Label(),
			AssignedAt:      e.AssignedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			DiscordUsername: e.DiscordUsername,
			DiscordAvatar:   e.DiscordAvatar,
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"staff": out})
}

type assignmentPayload struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Role   string `json:"role" validate:"required"`
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	actorID, payload, err := h.decodeAssignment(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, ok := rbac.ParseRole(payload.Role)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	userID, _ := uuid.Parse(payload.UserID)
	if err := h.service.Assign(r.Context(), actorID, userID, role); err != nil {
		h.logger.Error("assign role", slog.String("role", payload.Role), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	actorID, payload, err := h.decodeAssignment(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, ok := rbac.ParseRole(payload.Role)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown role")
		return
	}
	userID, _ := uuid.Parse(payload.UserID)
	if err := h.service.Remove(r.Context(), actorID, userID, role); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("remove role", slog.String("role", payload.Role), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) decodeAssignment(r *http.Request) (uuid.UUID, assignmentPayload, error) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return uuid.Nil, assignmentPayload{}, httpx.ErrUnauthorized
	}
	actorID, err := uuid.Parse(sess.User())
	if err != nil {
		return uuid.Nil, assignmentPayload{}, httpx.ErrUnauthorized
	}
	var payload assignmentPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		return uuid.Nil, assignmentPayload{}, httpx.ErrValidation
	}
	if err := h.validator.Struct(payload); err != nil {
		return uuid.Nil, assignmentPayload{}, httpx.ErrValidation
	}
	return actorID, payload, nil
}
