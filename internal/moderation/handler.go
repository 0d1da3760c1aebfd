package moderation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// LogReader pages the audit trail for the staff log view.
type LogReader interface {
	ListAuditLogs(ctx context.Context, limit int) ([]shared.AuditLog, error)
}

// Handler wires the moderation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	logs      LogReader
	rbacMW    rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, logs LogReader, rbacMW rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		logs:      logs,
		rbacMW:    rbacMW,
		validator: validator.New(),
	}
}

// MountRoutes registers moderation routes. Each action route carries its
// own capability gate on top of the admin-surface gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbacMW.Require(rbac.CapBanPlayers)).Post("/ban", h.handleBan)
	r.With(h.rbacMW.Require(rbac.CapKickPlayers)).Post("/kick", h.handleKick)
	r.With(h.rbacMW.Require(rbac.CapWarnPlayers)).Post("/warn", h.handleWarn)
	r.With(h.rbacMW.Require(rbac.CapBanPlayers)).Post("/unban", h.handleUnban)
	r.With(h.rbacMW.Require(rbac.CapViewLogs)).Get("/logs", h.handleLogs)
}

type banPayload struct {
	PlayerID string `json:"player_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	Duration string `json:"duration" validate:"required,oneof=1h 6h 12h 1d 3d 7d 14d 30d permanent"`
}

func (h *Handler) handleBan(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromSession(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var payload banPayload
	if err := h.decode(r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	err := h.service.Ban(r.Context(), actor, BanRequest{
		PlayerID: payload.PlayerID,
		Reason:   payload.Reason,
		Duration: BanDuration(payload.Duration),
	})
	h.respond(w, err, "ban", payload.PlayerID)
}

type kickPayload struct {
	PlayerID string `json:"player_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

func (h *Handler) handleKick(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromSession(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var payload kickPayload
	if err := h.decode(r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	err := h.service.Kick(r.Context(), actor, KickRequest{PlayerID: payload.PlayerID, Reason: payload.Reason})
	h.respond(w, err, "kick", payload.PlayerID)
}

type warnPayload struct {
	PlayerID string `json:"player_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
	Severity string `json:"severity" validate:"required,oneof=low medium high"`
}

func (h *Handler) handleWarn(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromSession(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var payload warnPayload
	if err := h.decode(r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	err := h.service.Warn(r.Context(), actor, WarnRequest{
		PlayerID: payload.PlayerID,
		Reason:   payload.Reason,
		Severity: WarnSeverity(payload.Severity),
	})
	h.respond(w, err, "warn", payload.PlayerID)
}

type unbanPayload struct {
	PlayerID string `json:"player_id" validate:"required"`
	Reason   string `json:"reason" validate:"required"`
}

func (h *Handler) handleUnban(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromSession(r)
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var payload unbanPayload
	if err := h.decode(r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	err := h.service.Unban(r.Context(), actor, UnbanRequest{PlayerID: payload.PlayerID, Reason: payload.Reason})
	h.respond(w, err, "unban", payload.PlayerID)
}

type logEntry struct {
	ActorID  string         `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       string         `json:"occurred_at"`
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	logs, err := h.logs.ListAuditLogs(r.Context(), limit)
	if err != nil {
		h.logger.Error("list audit logs", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	entries := make([]logEntry, len(logs))
	for i, entry := range logs {
		entries[i] = logEntry{
			ActorID:  entry.ActorID.String(),
			Action:   entry.Action,
			Entity:   entry.Entity,
			EntityID: entry.EntityID,
			Meta:     entry.Meta,
			At:       entry.At.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return httpx.ErrValidation
	}
	if err := h.validator.Struct(target); err != nil {
		return httpx.ErrValidation
	}
	return nil
}

func (h *Handler) respond(w http.ResponseWriter, err error, action, playerID string) {
	if err != nil {
		h.logger.Warn("moderation action failed",
			slog.String("action", action),
			slog.String("player_id", playerID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// actorFromSession builds the acting identity from the cookie session.
func actorFromSession(r *http.Request) (Actor, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return Actor{}, false
	}
	userID, err := uuid.Parse(sess.User())
	if err != nil {
		return Actor{}, false
	}
	held := make([]rbac.Role, 0)
	for _, name := range sess.Roles() {
		if role, ok := rbac.ParseRole(name); ok {
			held = append(held, role)
		}
	}
	return Actor{UserID: userID, Roles: held}, true
}
