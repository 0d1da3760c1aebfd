package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/profiles"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
	syncsvc "github.com/norulespvp/portal/internal/sync"
)

const oauthStateKey = "oauth_state"

// ProfileReader fetches display profiles for /auth/me.
type ProfileReader interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (profiles.Profile, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	syncer    Syncer
	oauth     URLBuilder
	profiles  ProfileReader
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, syncer Syncer, oauth URLBuilder, profileReader ProfileReader, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		syncer:    syncer,
		oauth:     oauth,
		profiles:  profileReader,
		sessions:  sessions,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.handleLogin)
	r.Get("/csrf", h.handleCSRF)
	r.Post("/session", h.handleSession)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

// handleCSRF mints (or returns) the CSRF token bound to the cookie session.
// Clients fetch it once and send it back on state-changing requests.
func (h *Handler) handleCSRF(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	token, err := h.csrf.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}

// handleLogin redirects to the provider authorization URL. The code
// exchange happens in the auth backend; the client comes back with a
// bearer token and posts it to /auth/session.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Set(oauthStateKey, state)
	}
	http.Redirect(w, r, h.oauth.SignInURL(state), http.StatusFound)
}

type sessionRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type sessionResponse struct {
	Success      bool               `json:"success"`
	Roles        []string           `json:"roles"`
	HighestRole  *string            `json:"highestRole"`
	IsAuthorized bool               `json:"isAuthorized"`
	Permissions  rbac.PermissionSet `json:"permissions"`
	Profile      syncsvc.Profile    `json:"profile"`
}

// handleSession completes a login: the freshly issued bearer token is
// verified through a full role sync and bound to the cookie session.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "access_token is required")
		return
	}

	result, err := h.syncer.Sync(r.Context(), req.AccessToken)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			httpx.RespondError(w, shared.ErrUnauthorized)
			return
		}
		h.logger.Error("session sync failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.SetBearer(req.AccessToken)
		sess.SetUser(result.UserID.String())
		names := make([]string, len(result.Roles))
		for i, role := range result.Roles {
			names[i] = string(role)
		}
		sess.SetRoles(names)
	}

	res := sessionResponse{
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

// handleLogout destroys the cookie session. Roles and profile vanish with
// it; nothing is cleared optimistically before the destroy is queued.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	sess.ClearAuth()
	h.sessions.Destroy(sess)
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

type meResponse struct {
	Authenticated bool               `json:"authenticated"`
	Roles         []string           `json:"roles"`
	IsAdmin       bool               `json:"isAdmin"`
	Permissions   rbac.PermissionSet `json:"permissions"`
	Profile       *syncsvc.Profile   `json:"profile,omitempty"`
}

// handleMe reports the resolved identity for the current cookie session.
// Permissions are recomputed from the cached role names on every call.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.JSON(w, http.StatusOK, meResponse{Roles: []string{}})
		return
	}

	held := make([]rbac.Role, 0)
	for _, name := range sess.Roles() {
		if role, ok := rbac.ParseRole(name); ok {
			held = append(held, role)
		}
	}
	held = rbac.SortByRank(held)

	res := meResponse{
		Authenticated: true,
		Roles:         roleNames(held),
		IsAdmin:       rbac.IsAuthorized(held),
		Permissions:   rbac.ResolvePermissions(held),
	}

	if userID, err := uuid.Parse(sess.User()); err == nil && h.profiles != nil {
		if p, err := h.profiles.GetByUser(r.Context(), userID); err == nil {
			res.Profile = &syncsvc.Profile{Username: p.DiscordUsername, AvatarURL: p.DiscordAvatar}
		}
	}
	httpx.JSON(w, http.StatusOK, res)
}

func roleNames(roles []rbac.Role) []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	return names
}
