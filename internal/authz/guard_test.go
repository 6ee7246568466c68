package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/tenant"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

func orgContext(t *testing.T, role domain.Role) *tenant.Context {
	t.Helper()
	tc, err := tenant.NewContext(domain.NewUserID(), role, domain.OrgScope(domain.NewOrgID()))
	require.NoError(t, err)
	return tc
}

func platformContext(t *testing.T) *tenant.Context {
	t.Helper()
	tc, err := tenant.NewContext(domain.NewUserID(), domain.RoleSuperAdmin, domain.PlatformScope())
	require.NoError(t, err)
	return tc
}

// Require is monotonic over the role ladder: success at a floor implies
// success at every lower floor, failure implies failure at every higher one.
func TestRequire_Monotonic(t *testing.T) {
	floors := []domain.Role{domain.RoleUser, domain.RoleAdmin, domain.RoleOrgAdmin}

	for i, have := range floors {
		tc := orgContext(t, have)
		for j, floor := range floors {
			err := Require(tc, floor)
			if i >= j {
				assert.NoError(t, err, "role %s at floor %s", have, floor)
			} else {
				require.Error(t, err, "role %s at floor %s", have, floor)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientRole))
			}
		}
	}
}

func TestRequire_PlatformOverrideIsOptIn(t *testing.T) {
	tc := platformContext(t)

	t.Run("platform principal fails an org floor by default", func(t *testing.T) {
		err := Require(tc, domain.RoleUser)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientRole))
	})

	t.Run("passes when the operation opts in", func(t *testing.T) {
		assert.NoError(t, Require(tc, domain.RoleOrgAdmin, AllowPlatformOverride()))
	})

	t.Run("the override does not weaken org principals", func(t *testing.T) {
		err := Require(orgContext(t, domain.RoleUser), domain.RoleOrgAdmin, AllowPlatformOverride())
		require.Error(t, err)
	})
}

func TestRequirePlatform(t *testing.T) {
	assert.NoError(t, RequirePlatform(platformContext(t)))

	// Even the highest org role is rejected.
	err := RequirePlatform(orgContext(t, domain.RoleOrgAdmin))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodePlatformOnly))
}

func TestNilContext(t *testing.T) {
	require.Error(t, Require(nil, domain.RoleUser))
	require.Error(t, RequirePlatform(nil))
}
