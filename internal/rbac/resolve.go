package rbac

// SortByRank orders roles by ascending rank, highest authority first.
// Duplicates collapse to a single entry and unknown roles are dropped, so
// the result is always a subset of the canonical ordering.
func SortByRank(roles []Role) []Role {
	present := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		if r.Valid() {
			present[r] = struct{}{}
		}
	}
	sorted := make([]Role, 0, len(present))
	for _, r := range rolesOrder {
		if _, ok := present[r]; ok {
			sorted = append(sorted, r)
		}
	}
	return sorted
}

// HighestRole returns the highest-ranked role held, or ok=false for an
// empty (or entirely unrecognized) set.
func HighestRole(roles []Role) (Role, bool) {
	sorted := SortByRank(roles)
	if len(sorted) == 0 {
		return "", false
	}
	return sorted[0], true
}

// HasCapability reports whether any held role grants the capability.
// Grants combine with logical OR: a lower role never removes a capability
// granted by a higher one held at the same time.
func HasCapability(roles []Role, c Capability) bool {
	for _, r := range roles {
		if PermissionsOf(r).Has(c) {
			return true
		}
	}
	return false
}

// ResolvePermissions computes the effective permission set for the held
// roles. The result is a complete record; an empty role set resolves to
// the all-false set. Resolution is idempotent under duplicate roles.
func ResolvePermissions(roles []Role) PermissionSet {
	var resolved PermissionSet
	for _, r := range SortByRank(roles) {
		resolved = resolved.union(PermissionsOf(r))
	}
	return resolved
}

// IsAuthorized reports whether the role set grants access to the
// administrative surface.
func IsAuthorized(roles []Role) bool {
	return HasCapability(roles, CapAccessAdmin)
}
