package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/norulespvp/portal/internal/shared"
)

func requestWithSession(t *testing.T, userID string, roles []string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	sess := &shared.Session{}
	if userID != "" {
		sess.SetUser(userID)
	}
	sess.SetRoles(roles)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireWithoutSession(t *testing.T) {
	mw := Middleware{}
	handler := mw.Require(CapAccessAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireMissingCapability(t *testing.T) {
	mw := Middleware{}
	handler := mw.Require(CapBanPlayers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "8b6c1f9e-0000-0000-0000-000000000001", []string{"moderator"}))
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireGrantedCapability(t *testing.T) {
	mw := Middleware{}
	called := false
	handler := mw.Require(CapKickPlayers, CapWarnPlayers)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "8b6c1f9e-0000-0000-0000-000000000001", []string{"moderator"}))
	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, called)
}

// Tampered or stale role names in the session cache cannot mint authority.
func TestRequireDropsUnknownRoleNames(t *testing.T) {
	mw := Middleware{}
	handler := mw.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, requestWithSession(t, "8b6c1f9e-0000-0000-0000-000000000001", []string{"superuser", "root"}))
	assert.Equal(t, http.StatusForbidden, res.Code)
}
