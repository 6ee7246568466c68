package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

func TestNewOrgUser(t *testing.T) {
	orgID := domain.NewOrgID()

	t.Run("creates a member with a hashed password", func(t *testing.T) {
		u, err := NewOrgUser(orgID, "Alice@Acme.Test", "correct-horse", domain.RoleAdmin)
		require.NoError(t, err)

		assert.Equal(t, "alice@acme.test", u.Email, "email is normalized")
		assert.NotEqual(t, "correct-horse", u.PasswordHash)
		require.NotNil(t, u.OrgID)
		assert.Equal(t, orgID, *u.OrgID)
		assert.True(t, u.Active)

		require.NoError(t, u.CheckPassword("correct-horse"))
		assert.True(t, dErrors.HasCode(u.CheckPassword("wrong"), dErrors.CodeUnauthorized))
	})

	t.Run("rejects platform roles", func(t *testing.T) {
		_, err := NewOrgUser(orgID, "alice@acme.test", "correct-horse", domain.RoleSuperAdmin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := NewOrgUser(orgID, "alice@acme.test", "short", domain.RoleUser)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects bad emails", func(t *testing.T) {
		for _, email := range []string{"", "   ", "not-an-email"} {
			_, err := NewOrgUser(orgID, email, "correct-horse", domain.RoleUser)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation), "email %q", email)
		}
	})
}

func TestNewPlatformUser(t *testing.T) {
	t.Run("creates an operator without an organization", func(t *testing.T) {
		u, err := NewPlatformUser("root@erpcore.test", "correct-horse", domain.RolePlatformAdmin)
		require.NoError(t, err)

		assert.Nil(t, u.OrgID)
		assert.True(t, u.IsPlatform())

		scope, err := u.TenantScope()
		require.NoError(t, err)
		assert.True(t, scope.IsPlatform())
	})

	t.Run("rejects organization roles", func(t *testing.T) {
		_, err := NewPlatformUser("root@erpcore.test", "correct-horse", domain.RoleOrgAdmin)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestTenantScope(t *testing.T) {
	orgID := domain.NewOrgID()
	u, err := NewOrgUser(orgID, "alice@acme.test", "correct-horse", domain.RoleUser)
	require.NoError(t, err)

	scope, err := u.TenantScope()
	require.NoError(t, err)
	got, ok := scope.OrgID()
	require.True(t, ok)
	assert.Equal(t, orgID, got)

	t.Run("org user without an org is an invariant violation", func(t *testing.T) {
		u.OrgID = nil
		_, err := u.TenantScope()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestSetPassword(t *testing.T) {
	u, err := NewOrgUser(domain.NewOrgID(), "alice@acme.test", "correct-horse", domain.RoleUser)
	require.NoError(t, err)
	u.MustChangePassword = true

	require.NoError(t, u.SetPassword("battery-staple"))
	assert.False(t, u.MustChangePassword)
	require.NoError(t, u.CheckPassword("battery-staple"))
	assert.Error(t, u.CheckPassword("correct-horse"))
}
