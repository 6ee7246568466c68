// Package authz is the permission gate handlers call before acting. It is a
// pure decision layer over the in-memory tenant context: no I/O, so a
// network failure can never silently grant access.
package authz

import (
	"erpcore/internal/tenant"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

type requireConfig struct {
	platformOverride bool
}

// Option adjusts a single Require call.
type Option func(*requireConfig)

// AllowPlatformOverride lets platform principals pass an organization-scoped
// role floor. Cross-tenant administration is opt-in per operation, never
// implicit.
func AllowPlatformOverride() Option {
	return func(c *requireConfig) { c.platformOverride = true }
}

// Require fails unless the context's role sits at or above minRole on the
// organization ladder (user < admin < org_admin). Platform principals are a
// separate tier and only pass when the operation opts in via
// AllowPlatformOverride.
func Require(tc *tenant.Context, minRole domain.Role, opts ...Option) error {
	if tc == nil {
		return dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}

	cfg := requireConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if tc.Role.IsPlatform() {
		if cfg.platformOverride {
			return nil
		}
		return dErrors.New(dErrors.CodeInsufficientRole, "operation does not permit platform override")
	}

	if !tc.Role.AtLeast(minRole) {
		return dErrors.Newf(dErrors.CodeInsufficientRole, "requires role %s or above", minRole)
	}
	return nil
}

// RequirePlatform fails for any organization-scoped context. Used by
// platform administration operations (provisioning, suspension).
func RequirePlatform(tc *tenant.Context) error {
	if tc == nil {
		return dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}
	if !tc.IsPlatform() {
		return dErrors.New(dErrors.CodePlatformOnly, "operation is restricted to platform principals")
	}
	return nil
}
