package rbac

import (
	"log/slog"
	"net/http"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/shared"
)

// Middleware gates HTTP handlers behind resolved permissions. Roles come
// from the cookie session cache populated by the last sync; unrecognized
// role names are dropped during parsing, so a stale or tampered cache can
// only lose authority, never gain it.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current user's resolved permissions grant every
// listed capability. Unauthenticated or unauthorized callers get an
// explicit access-denied response, never a partial view.
func (m Middleware) Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			held, ok := m.sessionRoles(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "access denied")
				return
			}
			resolved := ResolvePermissions(held)
			for _, c := range caps {
				if !resolved.Has(c) {
					if m.Logger != nil {
						m.Logger.Warn("capability denied",
							slog.String("capability", string(c)),
							slog.String("path", r.URL.Path))
					}
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates the whole administrative surface.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.Require(CapAccessAdmin)
}

func (m Middleware) sessionRoles(r *http.Request) ([]Role, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return nil, false
	}
	names := sess.Roles()
	held := make([]Role, 0, len(names))
	for _, name := range names {
		if role, ok := ParseRole(name); ok {
			held = append(held, role)
		}
	}
	return held, true
}
