// Package auth owns the authentication lifecycle: session state, sign-in
// and sign-out, and the cached result of the last role sync.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
	syncsvc "github.com/norulespvp/portal/internal/sync"
)

// State is the lifecycle phase of the manager.
type State int

const (
	StateInitializing State = iota
	StateUnauthenticated
	StateAuthenticating
	StateAuthenticated
)

// ProviderSession is an active session with the auth backend.
type ProviderSession struct {
	AccessToken string
}

// SessionSource abstracts the auth backend's session operations.
type SessionSource interface {
	// Current returns the existing session, or nil when signed out.
	Current(ctx context.Context) (*ProviderSession, error)
	// SignOut invalidates the session with the backend.
	SignOut(ctx context.Context, sess *ProviderSession) error
}

// Syncer runs a role sync for a bearer credential.
type Syncer interface {
	Sync(ctx context.Context, bearer string) (syncsvc.Result, error)
}

// URLBuilder produces the provider authorization URL for sign-in.
type URLBuilder interface {
	SignInURL(state string) string
}

// Manager is the single owner of process-wide auth state. All mutation
// goes through its methods; roles are the only stored authority and
// permissions are recomputed from them on every read.
type Manager struct {
	source SessionSource
	syncer Syncer
	oauth  URLBuilder
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	session *ProviderSession
	loading bool
	roles   []rbac.Role
	profile syncsvc.Profile
	// epoch fences in-flight syncs: a sync that finishes after the session
	// it started under was torn down must not revive cleared state.
	epoch uint64
}

// NewManager constructs a Manager in the Initializing state.
func NewManager(source SessionSource, syncer Syncer, oauth URLBuilder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		source:  source,
		syncer:  syncer,
		oauth:   oauth,
		logger:  logger,
		state:   StateInitializing,
		loading: true,
	}
}

// Start fetches any existing session. The loading flag clears as soon as
// the session question is answered; the role sync runs in the background
// and never blocks Start.
func (m *Manager) Start(ctx context.Context) {
	sess, err := m.source.Current(ctx)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.logger.Warn("fetch existing session", slog.Any("error", err))
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return
	}
	if sess == nil {
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return
	}
	m.session = sess
	m.state = StateAuthenticated
	m.epoch++
	m.mu.Unlock()

	go func() {
		if err := m.SyncRoles(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("initial role sync", slog.Any("error", err))
		}
	}()
}

// OnAuthChange reacts to auth-state events from the backend: a fresh
// session triggers a re-sync, a lost session clears all derived state.
func (m *Manager) OnAuthChange(ctx context.Context, sess *ProviderSession) {
	m.mu.Lock()
	m.epoch++
	if sess == nil {
		m.session = nil
		m.roles = nil
		m.profile = syncsvc.Profile{}
		m.state = StateUnauthenticated
		m.mu.Unlock()
		return
	}
	m.session = sess
	m.state = StateAuthenticated
	m.mu.Unlock()

	go func() {
		if err := m.SyncRoles(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("role sync after auth change", slog.Any("error", err))
		}
	}()
}

// SignInURL returns the provider authorization URL. Local state is not
// touched; authority only changes once the backend reports a session.
func (m *Manager) SignInURL(state string) string {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.state = StateAuthenticating
	}
	m.mu.Unlock()
	return m.oauth.SignInURL(state)
}

// SignOut invalidates the session with the backend, then clears local
// state. On backend failure the error propagates and state is unchanged.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return nil
	}
	if err := m.source.SignOut(ctx, sess); err != nil {
		return err
	}
	m.mu.Lock()
	m.epoch++
	m.session = nil
	m.roles = nil
	m.profile = syncsvc.Profile{}
	m.state = StateUnauthenticated
	m.mu.Unlock()
	return nil
}

// SyncRoles runs a role sync for the current session and stores the result.
// A result arriving after the session changed (epoch mismatch) is dropped.
// Store failures fail closed: cached roles are cleared, never left stale.
func (m *Manager) SyncRoles(ctx context.Context) error {
	m.mu.Lock()
	sess := m.session
	epoch := m.epoch
	m.mu.Unlock()
	if sess == nil {
		return nil
	}

	result, err := m.syncer.Sync(ctx, sess.AccessToken)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch || m.session == nil {
		// Session was torn down or replaced while the sync was in flight.
		return nil
	}
	if err != nil {
		m.roles = nil
		m.profile = syncsvc.Profile{}
		if errors.Is(err, shared.ErrUnauthorized) {
			m.session = nil
			m.state = StateUnauthenticated
		}
		return err
	}
	m.roles = append([]rbac.Role(nil), result.Roles...)
	m.profile = result.Profile
	return nil
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Loading reports whether the initial session fetch is still pending.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Roles returns the roles from the last completed sync.
func (m *Manager) Roles() []rbac.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rbac.Role(nil), m.roles...)
}

// Permissions resolves the effective permission set from the cached roles.
// It is always derived, never stored, so it cannot drift from the roles.
func (m *Manager) Permissions() rbac.PermissionSet {
	return rbac.ResolvePermissions(m.Roles())
}

// IsAdmin reports whether the cached roles grant admin access.
func (m *Manager) IsAdmin() bool {
	return rbac.IsAuthorized(m.Roles())
}

// Profile returns the display profile from the last completed sync.
func (m *Manager) Profile() syncsvc.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}
