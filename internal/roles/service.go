package roles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// ErrUnknownRole rejects grant attempts for roles outside the registry.
var ErrUnknownRole = errors.New("roles: unknown role")

// AuditRecorder persists audit entries for assignment changes.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles role assignment business logic.
type Service struct {
	repo  Repository
	audit AuditRecorder
	log   *slog.Logger
}

// NewService builds Service instance.
func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, log: logger}
}

// RolesOf returns the roles a user currently holds, rank-sorted.
func (s *Service) RolesOf(ctx context.Context, userID uuid.UUID) ([]rbac.Role, error) {
	assignments, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("roles: list by user: %w", err)
	}
	held := make([]rbac.Role, 0, len(assignments))
	for _, a := range assignments {
		held = append(held, a.Role)
	}
	return rbac.SortByRank(held), nil
}

// ListStaff returns every assignment with profile display data.
func (s *Service) ListStaff(ctx context.Context) ([]StaffEntry, error) {
	return s.repo.ListAll(ctx)
}

// Assign grants a role to a user. The role must belong to the registry.
func (s *Service) Assign(ctx context.Context, actorID, userID uuid.UUID, role rbac.Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if err := s.repo.Assign(ctx, userID, role); err != nil {
		return fmt.Errorf("roles: assign: %w", err)
	}
	s.recordAudit(ctx, actorID, "role_assign", userID, role)
	return nil
}

// Remove revokes a role from a user.
func (s *Service) Remove(ctx context.Context, actorID, userID uuid.UUID, role rbac.Role) error {
	if !role.Valid() {
		return ErrUnknownRole
	}
	if err := s.repo.Remove(ctx, userID, role); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return fmt.Errorf("roles: remove: %w", err)
	}
	s.recordAudit(ctx, actorID, "role_remove", userID, role)
	return nil
}

// recordAudit writes the trail entry for an assignment change. The grant
// or revoke has already landed; a failed write is logged, not propagated.
func (s *Service) recordAudit(ctx context.Context, actorID uuid.UUID, action string, userID uuid.UUID, role rbac.Role) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user_role",
		EntityID: userID.String(),
		Meta:     map[string]any{"role": string(role)},
	}); err != nil {
		s.logger().Error("record role audit entry",
			slog.String("action", action),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}
}

func (s *Service) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return slog.Default()
}
