package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/norulespvp/portal/internal/testing/guard"
)

func newManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "portal_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	sess.SetUser("user-1")
	sess.SetBearer("tok")
	sess.SetRoles([]string{"admin", "moderator"})

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)

	assert.Equal(t, "user-1", loaded.User())
	assert.Equal(t, "tok", loaded.Bearer())
	assert.Equal(t, []string{"admin", "moderator"}, loaded.Roles())
}

func TestClearAuthKeepsSessionAlive(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-1")
	sess.SetRoles([]string{"admin"})
	sess.Set("theme", "dark")

	sess.ClearAuth()
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)

	assert.Empty(t, loaded.User())
	assert.Empty(t, loaded.Roles())
	assert.Equal(t, "dark", loaded.Get("theme"))
}

func TestStaleCommitCannotReviveDestroyedSession(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-1")
	sess.SetBearer("tok")
	sess.SetRoles([]string{"admin"})
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), req, sess))

	authed := httptest.NewRequest(http.MethodGet, "/", nil)
	authed.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})

	// Two requests race on the same cookie: a logout and a role sync.
	logoutSess, err := sm.Load(ctx, authed)
	require.NoError(t, err)
	syncSess, err := sm.Load(ctx, authed)
	require.NoError(t, err)

	// Logout lands first and destroys the session.
	logoutSess.ClearAuth()
	sm.Destroy(logoutSess)
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), authed, logoutSess))

	// The sync finishes afterwards holding refreshed auth state. Its
	// commit must not bring the destroyed session back.
	syncSess.SetUser("user-1")
	syncSess.SetBearer("tok-2")
	syncSess.SetRoles([]string{"admin"})
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, authed, syncSess))

	reload := httptest.NewRequest(http.MethodGet, "/", nil)
	reload.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.ID})
	loaded, err := sm.Load(ctx, reload)
	require.NoError(t, err)
	assert.Empty(t, loaded.User())
	assert.Empty(t, loaded.Bearer())
	assert.Empty(t, loaded.Roles())

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, -1, cookies[0].MaxAge, "stale commit expires the cookie instead of refreshing it")
}

func TestDestroyExpiresCookie(t *testing.T) {
	sm := newManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	sm.Destroy(sess)
	res = httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
