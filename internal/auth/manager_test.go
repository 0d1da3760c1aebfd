package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
	syncsvc "github.com/norulespvp/portal/internal/sync"
)

type stubSource struct {
	session    *ProviderSession
	currentErr error
	signOutErr error
}

func (s *stubSource) Current(ctx context.Context) (*ProviderSession, error) {
	return s.session, s.currentErr
}

func (s *stubSource) SignOut(ctx context.Context, sess *ProviderSession) error {
	return s.signOutErr
}

type stubSyncer struct {
	mu      sync.Mutex
	result  syncsvc.Result
	err     error
	block   chan struct{}
	started chan struct{}
	calls   int
}

func (s *stubSyncer) Sync(ctx context.Context, bearer string) (syncsvc.Result, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	started := s.started
	s.started = nil
	s.mu.Unlock()
	if started != nil {
		close(started)
	}
	if block != nil {
		<-block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

type stubURLs struct{}

func (stubURLs) SignInURL(state string) string { return "https://provider.example/authorize?state=" + state }

func adminResult() syncsvc.Result {
	held := []rbac.Role{rbac.RoleAdmin}
	return syncsvc.Result{
		UserID:       uuid.New(),
		ExternalID:   "discord-1",
		Roles:        held,
		HighestRole:  rbac.RoleAdmin,
		HasHighest:   true,
		IsAuthorized: true,
		Permissions:  rbac.ResolvePermissions(held),
		Profile:      syncsvc.Profile{Username: "Maze"},
	}
}

func TestStartWithoutSession(t *testing.T) {
	m := NewManager(&stubSource{}, &stubSyncer{}, stubURLs{}, nil)
	assert.Equal(t, StateInitializing, m.State())
	assert.True(t, m.Loading())

	m.Start(context.Background())
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.False(t, m.Loading())
	assert.Empty(t, m.Roles())
	assert.False(t, m.IsAdmin())
}

func TestSyncRolesStoresResult(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}}
	syncer := &stubSyncer{result: adminResult()}
	m := NewManager(source, syncer, stubURLs{}, nil)
	m.Start(context.Background())

	require.NoError(t, m.SyncRoles(context.Background()))
	assert.Equal(t, []rbac.Role{rbac.RoleAdmin}, m.Roles())
	assert.True(t, m.IsAdmin())
	assert.True(t, m.Permissions().CanBanPlayers)
	assert.Equal(t, "Maze", m.Profile().Username)
}

// A sync still in flight when the user signs out must not repopulate roles
// after the sign-out cleared them.
func TestStaleSyncDiscardedAfterSignOut(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}}
	block := make(chan struct{})
	started := make(chan struct{})
	syncer := &stubSyncer{result: adminResult(), block: block, started: started}
	m := NewManager(source, syncer, stubURLs{}, nil)

	m.mu.Lock()
	m.session = source.session
	m.state = StateAuthenticated
	m.loading = false
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- m.SyncRoles(context.Background())
	}()

	// Sign out only once the sync is provably in flight.
	<-started
	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())

	close(block)
	require.NoError(t, <-done)

	assert.Empty(t, m.Roles(), "stale sync result must be discarded")
	assert.False(t, m.IsAdmin())
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestSyncFailureFailsClosed(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}}
	syncer := &stubSyncer{result: adminResult()}
	m := NewManager(source, syncer, stubURLs{}, nil)
	m.Start(context.Background())
	require.NoError(t, m.SyncRoles(context.Background()))
	require.NotEmpty(t, m.Roles())

	syncer.mu.Lock()
	syncer.err = errors.New("store unavailable")
	syncer.mu.Unlock()

	err := m.SyncRoles(context.Background())
	require.Error(t, err)
	assert.Empty(t, m.Roles(), "roles must clear on sync failure")
	assert.Equal(t, StateAuthenticated, m.State(), "session survives a store failure")
}

func TestSyncUnauthorizedTearsDownSession(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}}
	syncer := &stubSyncer{err: shared.ErrUnauthorized}
	m := NewManager(source, syncer, stubURLs{}, nil)

	m.mu.Lock()
	m.session = source.session
	m.state = StateAuthenticated
	m.loading = false
	m.mu.Unlock()

	err := m.SyncRoles(context.Background())
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Empty(t, m.Roles())
}

func TestSignOutBackendFailureKeepsState(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}, signOutErr: errors.New("backend down")}
	syncer := &stubSyncer{result: adminResult()}
	m := NewManager(source, syncer, stubURLs{}, nil)

	m.mu.Lock()
	m.session = source.session
	m.state = StateAuthenticated
	m.roles = []rbac.Role{rbac.RoleAdmin}
	m.loading = false
	m.mu.Unlock()

	err := m.SignOut(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, []rbac.Role{rbac.RoleAdmin}, m.Roles())
}

func TestOnAuthChangeClearsOnNilSession(t *testing.T) {
	source := &stubSource{session: &ProviderSession{AccessToken: "tok"}}
	syncer := &stubSyncer{result: adminResult()}
	m := NewManager(source, syncer, stubURLs{}, nil)
	m.Start(context.Background())
	require.NoError(t, m.SyncRoles(context.Background()))

	m.OnAuthChange(context.Background(), nil)
	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Empty(t, m.Roles())
	assert.Equal(t, syncsvc.Profile{}, m.Profile())
}
