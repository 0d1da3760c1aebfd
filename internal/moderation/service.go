package moderation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/norulespvp/portal/internal/platform/httpx"
	"github.com/norulespvp/portal/internal/rbac"
	"github.com/norulespvp/portal/internal/shared"
)

// AuditRecorder persists audit entries for dispatched actions.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service authorizes and dispatches moderation actions. Each call is a
// single authorize-then-dispatch request; nothing is queued or batched.
type Service struct {
	server GameServer
	audit  AuditRecorder
	log    *slog.Logger
}

// NewService constructs a Service.
func NewService(server GameServer, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{server: server, audit: audit, log: logger}
}

// Ban bans a player. Requires CapBanPlayers.
func (s *Service) Ban(ctx context.Context, actor Actor, req BanRequest) error {
	if !rbac.HasCapability(actor.Roles, rbac.CapBanPlayers) {
		return httpx.ErrForbidden
	}
	if !req.Duration.Valid() {
		return fmt.Errorf("%w: ban duration %q", httpx.ErrValidation, req.Duration)
	}
	if err := s.server.Ban(ctx, req); err != nil {
		return err
	}
	s.record(ctx, actor, "player_ban", req.PlayerID, map[string]any{
		"reason":   req.Reason,
		"duration": string(req.Duration),
	})
	return nil
}

// Kick kicks a player. Requires CapKickPlayers.
func (s *Service) Kick(ctx context.Context, actor Actor, req KickRequest) error {
	if !rbac.HasCapability(actor.Roles, rbac.CapKickPlayers) {
		return httpx.ErrForbidden
	}
	if err := s.server.Kick(ctx, req); err != nil {
		return err
	}
	s.record(ctx, actor, "player_kick", req.PlayerID, map[string]any{"reason": req.Reason})
	return nil
}

// Warn warns a player. Requires CapWarnPlayers.
func (s *Service) Warn(ctx context.Context, actor Actor, req WarnRequest) error {
	if !rbac.HasCapability(actor.Roles, rbac.CapWarnPlayers) {
		return httpx.ErrForbidden
	}
	if !req.Severity.Valid() {
		return fmt.Errorf("%w: warn severity %q", httpx.ErrValidation, req.Severity)
	}
	if err := s.server.Warn(ctx, req); err != nil {
		return err
	}
	s.record(ctx, actor, "player_warn", req.PlayerID, map[string]any{
		"reason":   req.Reason,
		"severity": string(req.Severity),
	})
	return nil
}

// Unban lifts a ban. Requires CapBanPlayers; lifting a ban is the same
// authority as issuing one.
func (s *Service) Unban(ctx context.Context, actor Actor, req UnbanRequest) error {
	if !rbac.HasCapability(actor.Roles, rbac.CapBanPlayers) {
		return httpx.ErrForbidden
	}
	if err := s.server.Unban(ctx, req); err != nil {
		return err
	}
	s.record(ctx, actor, "player_unban", req.PlayerID, map[string]any{"reason": req.Reason})
	return nil
}

// record writes the audit entry for a dispatched action. A failed write
// does not undo the action, but it is never silent: the trail backs the
// staff log view.
func (s *Service) record(ctx context.Context, actor Actor, action, playerID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "player",
		EntityID: playerID,
		Meta:     meta,
	}); err != nil {
		s.logger().Error("record moderation audit entry",
			slog.String("action", action),
			slog.String("player_id", playerID),
			slog.Any("error", err))
	}
}

func (s *Service) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return slog.Default()
}
