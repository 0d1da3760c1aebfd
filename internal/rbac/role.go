// Package rbac implements the role hierarchy, the static permission table
// and the resolution of effective permissions for a set of roles.
package rbac

// Role identifies a position in the staff hierarchy. The set of roles is
// closed and fixed at compile time.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleTeamLead  Role = "team_lead"
	RoleMainAdmin Role = "main_admin"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleModerator Role = "moderator"
	RoleMember    Role = "member"
)

// rolesOrder is the canonical hierarchy, highest authority first. Rank is
// the index into this slice.
var rolesOrder = []Role{
	RoleOwner,
	RoleTeamLead,
	RoleMainAdmin,
	RoleAdmin,
	RoleDeveloper,
	RoleModerator,
	RoleMember,
}

var roleRanks = func() map[Role]int {
	m := make(map[Role]int, len(rolesOrder))
	for i, r := range rolesOrder {
		m[r] = i
	}
	return m
}()

// Roles returns the canonical role ordering, highest authority first.
// Callers must not mutate the result.
func Roles() []Role {
	out := make([]Role, len(rolesOrder))
	copy(out, rolesOrder)
	return out
}

// Rank returns the position of the role in the hierarchy (0 = highest).
// Unknown roles report ok=false rather than a rank.
func Rank(r Role) (int, bool) {
	rank, ok := roleRanks[r]
	return rank, ok
}

// ParseRole converts a raw string into a Role. Unrecognized values are
// rejected so they can never enter the permission table.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleRanks[r]
	if !ok {
		return "", false
	}
	return r, true
}

// Label returns the display name for a role.
func (r Role) Label() string {
	switch r {
	case RoleOwner:
		return "Owner"
	case RoleTeamLead:
		return "Team Lead"
	case RoleMainAdmin:
		return "Main Admin"
	case RoleAdmin:
		return "Admin"
	case RoleDeveloper:
		return "Developer"
	case RoleModerator:
		return "Moderator"
	case RoleMember:
		return "Member"
	default:
		return string(r)
	}
}

// Valid reports whether the role belongs to the canonical set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}
