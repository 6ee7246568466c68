package domain

import dErrors "erpcore/pkg/domain-errors"

// Role is a principal's permission level. Organization roles form a fixed
// total order (user < admin < org_admin). Platform roles are a separate tier
// used for cross-tenant administration; they never satisfy an organization
// floor implicitly (see the authz guard's platform override).
type Role string

const (
	// Organization-scoped roles, in ascending order.
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleOrgAdmin Role = "org_admin"

	// Platform-scoped roles.
	RolePlatformAdmin Role = "platform_admin"
	RoleSuperAdmin    Role = "super_admin"
)

// orgRoleOrder positions organization roles on the ladder. Platform roles
// are absent: they are not comparable to organization roles.
var orgRoleOrder = map[Role]int{
	RoleUser:     1,
	RoleAdmin:    2,
	RoleOrgAdmin: 3,
}

// ParseRole validates a role string from an untrusted source (token claim,
// stored row).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleUser, RoleAdmin, RoleOrgAdmin, RolePlatformAdmin, RoleSuperAdmin:
		return r, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// IsPlatform reports whether the role belongs to the platform tier.
func (r Role) IsPlatform() bool {
	return r == RolePlatformAdmin || r == RoleSuperAdmin
}

// IsOrg reports whether the role belongs to the organization ladder.
func (r Role) IsOrg() bool {
	_, ok := orgRoleOrder[r]
	return ok
}

// AtLeast reports whether r sits at or above floor on the organization
// ladder. Platform roles and unknown roles always return false; callers that
// want platform principals to pass must opt in explicitly.
func (r Role) AtLeast(floor Role) bool {
	have, ok := orgRoleOrder[r]
	if !ok {
		return false
	}
	want, ok := orgRoleOrder[floor]
	if !ok {
		return false
	}
	return have >= want
}
