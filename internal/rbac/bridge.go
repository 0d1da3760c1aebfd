package rbac

// Bridge translates the identity provider's opaque group identifiers into
// internal roles. It is pure data; unrecognized identifiers are expected at
// this boundary and silently dropped.
type Bridge struct {
	groupToRole map[string]Role
}

// DefaultGroupBindings is the deployment default mapping of Discord role
// ids to internal roles. Deployments override it via DISCORD_ROLE_BINDINGS.
var DefaultGroupBindings = map[string]Role{
	"Discord.Owner":     RoleOwner,
	"Discord.TeamLead":  RoleTeamLead,
	"Discord.MainAdmin": RoleMainAdmin,
	"Discord.Admin":     RoleAdmin,
	"Discord.Developer": RoleDeveloper,
	"Discord.Moderator": RoleModerator,
	"Discord.Player":    RoleMember,
}

// NewBridge builds a Bridge from group-id → role bindings. Bindings that
// reference a role outside the canonical set are ignored so a bad binding
// can never mint authority.
func NewBridge(bindings map[string]Role) *Bridge {
	m := make(map[string]Role, len(bindings))
	for id, role := range bindings {
		if id == "" || !role.Valid() {
			continue
		}
		m[id] = role
	}
	return &Bridge{groupToRole: m}
}

// MapExternalGroups resolves external group ids to the internal roles they
// are bound to. Unknown ids are dropped, duplicates collapse, and the
// result is rank-sorted. The function is pure and total.
func (b *Bridge) MapExternalGroups(groupIDs []string) []Role {
	roles := make([]Role, 0, len(groupIDs))
	for _, id := range groupIDs {
		if role, ok := b.groupToRole[id]; ok {
			roles = append(roles, role)
		}
	}
	return SortByRank(roles)
}
