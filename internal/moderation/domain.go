// Package moderation dispatches administrative actions (ban, kick, warn,
// unban) to the game server, gated by the caller's resolved permissions.
package moderation

import (
	"github.com/google/uuid"

	"github.com/norulespvp/portal/internal/rbac"
)

// BanDuration is the closed set of accepted ban lengths.
type BanDuration string

const (
	Ban1Hour     BanDuration = "1h"
	Ban6Hours    BanDuration = "6h"
	Ban12Hours   BanDuration = "12h"
	Ban1Day      BanDuration = "1d"
	Ban3Days     BanDuration = "3d"
	Ban7Days     BanDuration = "7d"
	Ban14Days    BanDuration = "14d"
	Ban30Days    BanDuration = "30d"
	BanPermanent BanDuration = "permanent"
)

// Valid reports whether the duration is one of the accepted values.
func (d BanDuration) Valid() bool {
	switch d {
	case Ban1Hour, Ban6Hours, Ban12Hours, Ban1Day, Ban3Days, Ban7Days, Ban14Days, Ban30Days, BanPermanent:
		return true
	default:
		return false
	}
}

// WarnSeverity grades a warning.
type WarnSeverity string

const (
	SeverityLow    WarnSeverity = "low"
	SeverityMedium WarnSeverity = "medium"
	SeverityHigh   WarnSeverity = "high"
)

// Valid reports whether the severity is one of the accepted values.
func (s WarnSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	default:
		return false
	}
}

// Actor identifies who requested an action and with what authority.
type Actor struct {
	UserID uuid.UUID
	Roles  []rbac.Role
}

// BanRequest bans a player for a duration.
type BanRequest struct {
	PlayerID string
	Reason   string
	Duration BanDuration
}

// KickRequest removes a player from the server.
type KickRequest struct {
	PlayerID string
	Reason   string
}

// WarnRequest records a warning against a player.
type WarnRequest struct {
	PlayerID string
	Reason   string
	Severity WarnSeverity
}

// UnbanRequest lifts an active ban.
type UnbanRequest struct {
	PlayerID string
	Reason   string
}
