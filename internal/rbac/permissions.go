package rbac

// Capability is a single named boolean authorization.
type Capability string

const (
	CapAccessAdmin  Capability = "canAccessAdmin"
	CapBanPlayers   Capability = "canBanPlayers"
	CapKickPlayers  Capability = "canKickPlayers"
	CapWarnPlayers  Capability = "canWarnPlayers"
	CapManageRoles  Capability = "canManageRoles"
	CapViewLogs     Capability = "canViewLogs"
	CapManageServer Capability = "canManageServer"
	CapEditConfig   Capability = "canEditConfig"
)

// Capabilities lists every capability name, in table order.
func Capabilities() []Capability {
	return []Capability{
		CapAccessAdmin,
		CapBanPlayers,
		CapKickPlayers,
		CapWarnPlayers,
		CapManageRoles,
		CapViewLogs,
		CapManageServer,
		CapEditConfig,
	}
}

// PermissionSet is the complete record of all capabilities. The zero value
// grants nothing.
type PermissionSet struct {
	CanAccessAdmin  bool `json:"canAccessAdmin"`
	CanBanPlayers   bool `json:"canBanPlayers"`
	CanKickPlayers  bool `json:"canKickPlayers"`
	CanWarnPlayers  bool `json:"canWarnPlayers"`
	CanManageRoles  bool `json:"canManageRoles"`
	CanViewLogs     bool `json:"canViewLogs"`
	CanManageServer bool `json:"canManageServer"`
	CanEditConfig   bool `json:"canEditConfig"`
}

// Has reports whether the set grants the named capability. Unknown
// capability names are never granted.
func (p PermissionSet) Has(c Capability) bool {
	switch c {
	case CapAccessAdmin:
		return p.CanAccessAdmin
	case CapBanPlayers:
		return p.CanBanPlayers
	case CapKickPlayers:
		return p.CanKickPlayers
	case CapWarnPlayers:
		return p.CanWarnPlayers
	case CapManageRoles:
		return p.CanManageRoles
	case CapViewLogs:
		return p.CanViewLogs
	case CapManageServer:
		return p.CanManageServer
	case CapEditConfig:
		return p.CanEditConfig
	default:
		return false
	}
}

// union merges grants from another set. Capabilities combine with logical
// OR; a role can add authority but never remove it.
func (p PermissionSet) union(other PermissionSet) PermissionSet {
	return PermissionSet{
		CanAccessAdmin:  p.CanAccessAdmin || other.CanAccessAdmin,
		CanBanPlayers:   p.CanBanPlayers || other.CanBanPlayers,
		CanKickPlayers:  p.CanKickPlayers || other.CanKickPlayers,
		CanWarnPlayers:  p.CanWarnPlayers || other.CanWarnPlayers,
		CanManageRoles:  p.CanManageRoles || other.CanManageRoles,
		CanViewLogs:     p.CanViewLogs || other.CanViewLogs,
		CanManageServer: p.CanManageServer || other.CanManageServer,
		CanEditConfig:   p.CanEditConfig || other.CanEditConfig,
	}
}

// PermissionsOf returns the static permission set for a role. The switch is
// exhaustive over the canonical roles; anything else resolves to the
// all-false set. Ambiguity fails closed, never open.
func PermissionsOf(r Role) PermissionSet {
	switch r {
	case RoleOwner:
		return PermissionSet{
			CanAccessAdmin:  true,
			CanBanPlayers:   true,
			CanKickPlayers:  true,
			CanWarnPlayers:  true,
			CanManageRoles:  true,
			CanViewLogs:     true,
			CanManageServer: true,
			CanEditConfig:   true,
		}
	case RoleTeamLead:
		return PermissionSet{
			CanAccessAdmin:  true,
			CanBanPlayers:   true,
			CanKickPlayers:  true,
			CanWarnPlayers:  true,
			CanManageRoles:  true,
			CanViewLogs:     true,
			CanManageServer: true,
		}
	case RoleMainAdmin:
		return PermissionSet{
			CanAccessAdmin: true,
			CanBanPlayers:  true,
			CanKickPlayers: true,
			CanWarnPlayers: true,
			CanViewLogs:    true,
		}
	case RoleAdmin:
		return PermissionSet{
			CanAccessAdmin: true,
			CanBanPlayers:  true,
			CanKickPlayers: true,
			CanWarnPlayers: true,
			CanViewLogs:    true,
		}
	case RoleDeveloper:
		return PermissionSet{
			CanAccessAdmin:  true,
			CanViewLogs:     true,
			CanManageServer: true,
			CanEditConfig:   true,
		}
	case RoleModerator:
		return PermissionSet{
			CanAccessAdmin: true,
			CanKickPlayers: true,
			CanWarnPlayers: true,
			CanViewLogs:    true,
		}
	case RoleMember:
		return PermissionSet{}
	default:
		return PermissionSet{}
	}
}
