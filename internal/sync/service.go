// Package sync reconciles a freshly authenticated caller's authority with
// the persistent store and returns a ready-to-use resolved identity.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/identity"
	"github.com/norulespvp/portal/internal/profiles"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/roles"
)

// RoleSource selects what is authoritative for writing assignments.
type RoleSource string

const (
	// RoleSourceStore leaves assignment writes to explicit admin grants.
	RoleSourceStore RoleSource = "store"
	// RoleSourceProvider reconciles assignments from the provider's group
	// memberships on every sync.
	RoleSourceProvider RoleSource = "provider"
)

// RoleStore is the slice of the assignment repository the sync needs.
type RoleStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]roles.Assignment, error)
	Assign(ctx context.Context, userID uuid.UUID, role rbac.Role) error
	Remove(ctx context.Context, userID uuid.UUID, role rbac.Role) error
}

// ProfileStore persists provider display data.
type ProfileStore interface {
	Upsert(ctx context.Context, p profiles.Profile) error
}

// Profile is the display slice of the synced identity.
type Profile struct {
	Username  string `json:"discord_username"`
	AvatarURL string `json:"discord_avatar"`
}

// Result is the resolved identity returned by a sync. It is ephemeral:
// recomputed from the store on every call, never persisted.
type Result struct {
	UserID       uuid.UUID
	ExternalID   string
	Roles        []rbac.Role
	HighestRole  rbac.Role
	HasHighest   bool
	IsAuthorized bool
	Permissions  rbac.PermissionSet
	Profile      Profile
}

// Service performs the role sync.
type Service struct {
	verifier identity.Verifier
	store    RoleStore
	profiles ProfileStore
	bridge   *rbac.Bridge
	source   RoleSource
	logger   *slog.Logger
}

// NewService constructs a Service. source decides whether provider group
// memberships drive assignment writes (see RoleSource).
func NewService(verifier identity.Verifier, store RoleStore, profileStore ProfileStore, bridge *rbac.Bridge, source RoleSource, logger *slog.Logger) *Service {
	if source != RoleSourceProvider {
		source = RoleSourceStore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		verifier: verifier,
		store:    store,
		profiles: profileStore,
		bridge:   bridge,
		source:   source,
		logger:   logger,
	}
}

// Sync verifies the bearer credential, reconciles and reads the caller's
// role assignments, upserts the display profile, and returns the resolved
// identity.
//
// Failure policy: an invalid credential and an assignment read failure are
// fatal (the caller must fall back to no authority). A missing external id
// is a success with empty roles. A profile write failure is logged and
// swallowed; role resolution must not depend on display data.
func (s *Service) Sync(ctx context.Context, bearer string) (Result, error) {
	ident, err := s.verifier.Verify(ctx, bearer)
	if err != nil {
		return Result{}, err
	}

	if ident.ExternalID == "" {
		return Result{
			UserID:      ident.UserID,
			Roles:       []rbac.Role{},
			Permissions: rbac.ResolvePermissions(nil),
			Profile:     Profile{Username: ident.Username, AvatarURL: ident.AvatarURL},
		}, nil
	}

	if s.source == RoleSourceProvider {
		if err := s.reconcile(ctx, ident); err != nil {
			return Result{}, err
		}
	}

	assignments, err := s.store.ListByUser(ctx, ident.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("sync: read assignments: %w", err)
	}

	if err := s.profiles.Upsert(ctx, profiles.Profile{
		UserID:          ident.UserID,
		DiscordID:       ident.ExternalID,
		DiscordUsername: ident.Username,
		DiscordAvatar:   ident.AvatarURL,
		Email:           ident.Email,
	}); err != nil {
		s.logger.Warn("sync: profile upsert failed", slog.String("user_id", ident.UserID.String()), slog.Any("error", err))
	}

	held := make([]rbac.Role, 0, len(assignments))
	for _, a := range assignments {
		held = append(held, a.Role)
	}
	sorted := rbac.SortByRank(held)
	highest, hasHighest := rbac.HighestRole(sorted)

	return Result{
		UserID:       ident.UserID,
		ExternalID:   ident.ExternalID,
		Roles:        sorted,
		HighestRole:  highest,
		HasHighest:   hasHighest,
		IsAuthorized: rbac.IsAuthorized(sorted),
		Permissions:  rbac.ResolvePermissions(sorted),
		Profile:      Profile{Username: ident.Username, AvatarURL: ident.AvatarURL},
	}, nil
}

// reconcile aligns persisted assignments with the provider's current group
// memberships: grants appear, withdrawn memberships disappear.
func (s *Service) reconcile(ctx context.Context, ident *identity.Identity) error {
	desired := s.bridge.MapExternalGroups(ident.Groups)
	want := make(map[rbac.Role]struct{}, len(desired))
	for _, r := range desired {
		want[r] = struct{}{}
	}

	existing, err := s.store.ListByUser(ctx, ident.UserID)
	if err != nil {
		return fmt.Errorf("sync: read assignments for reconcile: %w", err)
	}
	have := make(map[rbac.Role]struct{}, len(existing))
	for _, a := range existing {
		have[a.Role] = struct{}{}
	}

	for role := range want {
		if _, ok := have[role]; !ok {
			if err := s.store.Assign(ctx, ident.UserID, role); err != nil {
				return fmt.Errorf("sync: assign %s: %w", role, err)
			}
		}
	}
	for role := range have {
		if _, ok := want[role]; !ok {
			if err := s.store.Remove(ctx, ident.UserID, role); err != nil {
				return fmt.Errorf("sync: remove %s: %w", role, err)
			}
		}
	}
	return nil
}
