// Package tenant owns the per-request tenant context and the resolver that
// produces it. Everything downstream of the resolver (guards, scope filters,
// audit, handlers) works from a *tenant.Context and never re-derives tenant
// identity from the raw request.
package tenant

import (
	"context"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

// Context carries the resolved identity of one in-flight request: who is
// acting, with what role, inside which organization (or platform-wide).
//
// A Context is constructed fresh by the resolver for every request and
// attached to that request's context.Context. It must never be stored in a
// process-wide or pooled slot that outlives the request; a context retained
// across requests is a cross-tenant leak.
type Context struct {
	Principal domain.UserID
	Role      domain.Role
	Scope     domain.Scope
}

// NewContext validates the role tier against the scope variant so an
// inconsistent context cannot be constructed.
func NewContext(principal domain.UserID, role domain.Role, scope domain.Scope) (*Context, error) {
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant context requires a principal")
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	if scope.IsPlatform() != role.IsPlatform() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "role tier and scope variant must agree")
	}
	return &Context{Principal: principal, Role: role, Scope: scope}, nil
}

// IsPlatform reports whether the acting principal is platform-scoped.
func (tc *Context) IsPlatform() bool {
	return tc.Scope.IsPlatform()
}

// OrgID returns the acting organization id for organization-scoped contexts.
func (tc *Context) OrgID() (domain.OrgID, bool) {
	return tc.Scope.OrgID()
}

type contextKey struct{}

// WithContext attaches a resolved tenant context to a request context.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the tenant context placed by the resolver middleware.
// Absence means the request never passed resolution and must not touch
// tenant-owned data.
func FromContext(ctx context.Context) (*Context, error) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	if !ok || tc == nil {
		return nil, dErrors.New(dErrors.CodeTenantMissing, "no tenant context in request")
	}
	return tc, nil
}
