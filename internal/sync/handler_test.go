package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

type recordingMetrics struct {
	outcomes []string
}

func (r *recordingMetrics) RecordSync(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newSyncRouter(svc *Service, metrics SyncRecorder) http.Handler {
	h := NewHandler(nil, svc, metrics)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func TestHandleSyncOK(t *testing.T) {
	userID := uuid.New()
	store := newMemoryRoleStore()
	store.assignments[userID] = []rbac.Role{rbac.RoleAdmin}
	svc := NewService(&stubVerifier{ident: testIdentity(userID)}, store, &memoryProfileStore{}, rbac.NewBridge(nil), RoleSourceStore, nil)
	metrics := &recordingMetrics{}

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("Authorization", "Bearer token")
	sess := &shared.Session{}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	newSyncRouter(svc, metrics).ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Success      bool               `json:"success"`
		Roles        []string           `json:"roles"`
		HighestRole  *string            `json:"highestRole"`
		IsAuthorized bool               `json:"isAuthorized"`
		Permissions  rbac.PermissionSet `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"admin"}, body.Roles)
	require.NotNil(t, body.HighestRole)
	assert.Equal(t, "admin", *body.HighestRole)
	assert.True(t, body.IsAuthorized)
	assert.True(t, body.Permissions.CanBanPlayers)

	// The cookie session cache follows the sync result.
	assert.Equal(t, []string{"admin"}, sess.Roles())
	assert.Equal(t, userID.String(), sess.User())
	assert.Equal(t, []string{"ok"}, metrics.outcomes)
}

func TestHandleSyncUnauthorized(t *testing.T) {
	svc := NewService(&stubVerifier{err: shared.ErrUnauthorized}, newMemoryRoleStore(), &memoryProfileStore{}, rbac.NewBridge(nil), RoleSourceStore, nil)
	metrics := &recordingMetrics{}

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	res := httptest.NewRecorder()
	newSyncRouter(svc, metrics).ServeHTTP(res, req)

	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, []string{"unauthorized"}, metrics.outcomes)
}
