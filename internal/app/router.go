package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/norulespvp/portal/internal/auth"
	"github.com/norulespvp/portal/internal/moderation"
	"github.com/norulespvp/portal/internal/observability"
	"github.com/norulespvp/portal/internal/roles"
	"github.com/norulespvp/portal/internal/shared"
	"github.com/norulespvp/portal/internal/status"
	syncsvc "github.com/norulespvp/portal/internal/sync"
	"github.com/norulespvp/portal/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler       *auth.Handler
	SyncHandler       *syncsvc.Handler
	RolesHandler      *roles.Handler
	ModerationHandler *moderation.Handler
	StatusHandler     *status.Handler
	JobsHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		params.SyncHandler.MountRoutes(r)
	})

	// Handlers apply their own capability checks per route, so the
	// admin group only provides the path prefix.
	r.Route("/admin", func(r chi.Router) {
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.ModerationHandler != nil {
			r.Route("/moderation", params.ModerationHandler.MountRoutes)
		}
	})

	if params.StatusHandler != nil {
		r.Route("/api", params.StatusHandler.MountRoutes)
	}

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
