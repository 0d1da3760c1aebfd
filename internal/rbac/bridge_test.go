package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapExternalGroups(t *testing.T) {
	bridge := NewBridge(map[string]Role{
		"100": RoleOwner,
		"200": RoleModerator,
		"300": RoleDeveloper,
	})

	got := bridge.MapExternalGroups([]string{"200", "999", "300"})
	assert.Equal(t, []Role{RoleDeveloper, RoleModerator}, got)
}

func TestMapExternalGroupsUnknownIDsDropSilently(t *testing.T) {
	bridge := NewBridge(DefaultGroupBindings)
	got := bridge.MapExternalGroups([]string{"no-such-group", "also-unknown"})
	assert.Empty(t, got)
}

func TestMapExternalGroupsDuplicatesCollapse(t *testing.T) {
	bridge := NewBridge(map[string]Role{"a": RoleAdmin, "b": RoleAdmin})
	got := bridge.MapExternalGroups([]string{"a", "b", "a"})
	assert.Equal(t, []Role{RoleAdmin}, got)
}

func TestNewBridgeSkipsInvalidBindings(t *testing.T) {
	bridge := NewBridge(map[string]Role{
		"":    RoleOwner,
		"bad": Role("super_admin"),
		"ok":  RoleModerator,
	})
	assert.Equal(t, []Role{RoleModerator}, bridge.MapExternalGroups([]string{"", "bad", "ok"}))
}
