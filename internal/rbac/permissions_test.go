package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsOfTable(t *testing.T) {
	cases := []struct {
		role Role
		want PermissionSet
	}{
		{RoleOwner, PermissionSet{true, true, true, true, true, true, true, true}},
		{RoleTeamLead, PermissionSet{true, true, true, true, true, true, true, false}},
		{RoleMainAdmin, PermissionSet{CanAccessAdmin: true, CanBanPlayers: true, CanKickPlayers: true, CanWarnPlayers: true, CanViewLogs: true}},
		{RoleAdmin, PermissionSet{CanAccessAdmin: true, CanBanPlayers: true, CanKickPlayers: true, CanWarnPlayers: true, CanViewLogs: true}},
		{RoleDeveloper, PermissionSet{CanAccessAdmin: true, CanViewLogs: true, CanManageServer: true, CanEditConfig: true}},
		{RoleModerator, PermissionSet{CanAccessAdmin: true, CanKickPlayers: true, CanWarnPlayers: true, CanViewLogs: true}},
		{RoleMember, PermissionSet{}},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, PermissionsOf(tc.role))
		})
	}
}

func TestPermissionsOfUnknownRoleFailsClosed(t *testing.T) {
	assert.Equal(t, PermissionSet{}, PermissionsOf(Role("super_admin")))
	assert.Equal(t, PermissionSet{}, PermissionsOf(Role("")))
}

func TestModeratorCannotBan(t *testing.T) {
	p := PermissionsOf(RoleModerator)
	if p.CanBanPlayers {
		t.Fatalf("moderator must not be able to ban")
	}
	if !p.CanKickPlayers || !p.CanWarnPlayers {
		t.Fatalf("moderator should kick and warn")
	}
}

func TestHasUnknownCapability(t *testing.T) {
	p := PermissionsOf(RoleOwner)
	assert.False(t, p.Has(Capability("canDeleteEverything")))
}

func TestHasCoversEveryCapability(t *testing.T) {
	p := PermissionsOf(RoleOwner)
	for _, c := range Capabilities() {
		require.True(t, p.Has(c), "owner should hold %s", c)
	}
	empty := PermissionSet{}
	for _, c := range Capabilities() {
		require.False(t, empty.Has(c), "zero value should not hold %s", c)
	}
}

func TestUnionNeverRemovesAuthority(t *testing.T) {
	for _, a := range Roles() {
		for _, b := range Roles() {
			merged := PermissionsOf(a).union(PermissionsOf(b))
			for _, c := range Capabilities() {
				if PermissionsOf(a).Has(c) && !merged.Has(c) {
					t.Fatalf("union of %s and %s dropped %s", a, b, c)
				}
			}
		}
	}
}
