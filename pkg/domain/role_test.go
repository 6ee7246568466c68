package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAtLeast_Monotonic verifies the ladder is a total order: success at a
// higher floor implies success at every lower floor, and failure at a lower
// floor implies failure at every higher one.
func TestAtLeast_Monotonic(t *testing.T) {
	ladder := []Role{RoleUser, RoleAdmin, RoleOrgAdmin}

	for i, have := range ladder {
		for j, floor := range ladder {
			got := have.AtLeast(floor)
			assert.Equal(t, i >= j, got, "role %s against floor %s", have, floor)
		}
	}
}

func TestAtLeast_PlatformRolesNeverPassOrgFloors(t *testing.T) {
	for _, r := range []Role{RolePlatformAdmin, RoleSuperAdmin} {
		for _, floor := range []Role{RoleUser, RoleAdmin, RoleOrgAdmin} {
			assert.False(t, r.AtLeast(floor), "%s must not implicitly satisfy %s", r, floor)
		}
	}
}

func TestRoleTiers(t *testing.T) {
	assert.True(t, RoleSuperAdmin.IsPlatform())
	assert.True(t, RolePlatformAdmin.IsPlatform())
	assert.False(t, RoleOrgAdmin.IsPlatform())
	assert.True(t, RoleOrgAdmin.IsOrg())
	assert.False(t, RoleSuperAdmin.IsOrg())
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "admin", "org_admin", "platform_admin", "super_admin"} {
		r, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, r.String())
	}

	_, err := ParseRole("root")
	require.Error(t, err)
	_, err = ParseRole("")
	require.Error(t, err)
}
