package tenant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/tenant/models"
	"erpcore/internal/tenant/store"
	"erpcore/internal/token"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

type resolverFixture struct {
	resolver *Resolver
	codec    *token.Codec
	orgs     *store.InMemory
	acme     *models.Organization
	beta     *models.Organization
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	codec, err := token.NewCodec("0123456789abcdef0123456789abcdef", "erpcore-test", time.Hour)
	require.NoError(t, err)

	orgs := store.NewInMemory()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	acme, err := models.NewOrganization(domain.NewOrgID(), "acme", "Acme Industries", now)
	require.NoError(t, err)
	require.NoError(t, acme.Activate(models.PlanPremium, now))
	require.NoError(t, orgs.Create(context.Background(), acme))

	beta, err := models.NewOrganization(domain.NewOrgID(), "beta", "Beta Corp", now)
	require.NoError(t, err)
	require.NoError(t, orgs.Create(context.Background(), beta))

	return &resolverFixture{
		resolver: NewResolver(orgs, codec, WithBaseDomain("erpcore.app")),
		codec:    codec,
		orgs:     orgs,
		acme:     acme,
		beta:     beta,
	}
}

func (f *resolverFixture) orgToken(t *testing.T, orgID domain.OrgID, role domain.Role) string {
	t.Helper()
	signed, err := f.codec.Issue(context.Background(), domain.NewUserID(), role, domain.OrgScope(orgID))
	require.NoError(t, err)
	return signed
}

func (f *resolverFixture) platformToken(t *testing.T) string {
	t.Helper()
	signed, err := f.codec.Issue(context.Background(), domain.NewUserID(), domain.RoleSuperAdmin, domain.PlatformScope())
	require.NoError(t, err)
	return signed
}

func authedRequest(tokenString, host, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "http://"+host+path, nil)
	req.Host = host
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}
	return req
}

// A valid org-scoped token with no conflicting signal resolves to a context
// whose organization equals the token's claim.
func TestResolve_TokenClaimAuthoritative(t *testing.T) {
	f := newResolverFixture(t)
	tok := f.orgToken(t, f.acme.ID, domain.RoleAdmin)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"no advisory signal", authedRequest(tok, "erpcore.app", "/api/v1/vendors")},
		{"matching subdomain", authedRequest(tok, "acme.erpcore.app", "/api/v1/vendors")},
		{"matching header", func() *http.Request {
			r := authedRequest(tok, "erpcore.app", "/api/v1/vendors")
			r.Header.Set(OrgHeader, f.acme.ID.String())
			return r
		}()},
		{"matching path segment", authedRequest(tok, "erpcore.app", "/api/v1/org/"+f.acme.ID.String()+"/vendors")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := f.resolver.Resolve(tt.req)
			require.NoError(t, err)
			orgID, ok := tc.OrgID()
			require.True(t, ok)
			assert.Equal(t, f.acme.ID, orgID)
			assert.Equal(t, domain.RoleAdmin, tc.Role)
		})
	}
}

// A token for organization A presented against organization B's subdomain,
// header, or path segment is rejected, never silently resolved.
func TestResolve_TenantMismatch(t *testing.T) {
	f := newResolverFixture(t)
	tok := f.orgToken(t, f.acme.ID, domain.RoleAdmin)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"foreign subdomain", authedRequest(tok, "beta.erpcore.app", "/api/v1/vendors")},
		{"foreign header", func() *http.Request {
			r := authedRequest(tok, "erpcore.app", "/api/v1/vendors")
			r.Header.Set(OrgHeader, f.beta.ID.String())
			return r
		}()},
		{"foreign path segment", authedRequest(tok, "erpcore.app", "/api/v1/org/"+f.beta.ID.String()+"/vendors")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.resolver.Resolve(tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMismatch))
		})
	}
}

func TestResolve_PlatformToken(t *testing.T) {
	f := newResolverFixture(t)
	tok := f.platformToken(t)

	t.Run("yields a platform context with no organization", func(t *testing.T) {
		tc, err := f.resolver.Resolve(authedRequest(tok, "erpcore.app", "/api/v1/organizations"))
		require.NoError(t, err)
		assert.True(t, tc.IsPlatform())
	})

	t.Run("advisory signals never grant tenant scope", func(t *testing.T) {
		tc, err := f.resolver.Resolve(authedRequest(tok, "acme.erpcore.app", "/api/v1/vendors"))
		require.NoError(t, err)
		assert.True(t, tc.IsPlatform())
	})
}

func TestResolve_OrganizationLifecycle(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("suspended organization fails before any handler runs", func(t *testing.T) {
		require.NoError(t, f.acme.Suspend(time.Now()))
		require.NoError(t, f.orgs.Update(context.Background(), f.acme))

		tok := f.orgToken(t, f.acme.ID, domain.RoleOrgAdmin)
		_, err := f.resolver.Resolve(authedRequest(tok, "erpcore.app", "/"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOrgSuspended))
	})

	t.Run("trial organization resolves", func(t *testing.T) {
		tok := f.orgToken(t, f.beta.ID, domain.RoleUser)
		tc, err := f.resolver.Resolve(authedRequest(tok, "erpcore.app", "/"))
		require.NoError(t, err)
		orgID, _ := tc.OrgID()
		assert.Equal(t, f.beta.ID, orgID)
	})

	t.Run("deleted organization yields missing context", func(t *testing.T) {
		require.NoError(t, f.beta.SoftDelete(time.Now()))
		require.NoError(t, f.orgs.Update(context.Background(), f.beta))

		tok := f.orgToken(t, f.beta.ID, domain.RoleUser)
		_, err := f.resolver.Resolve(authedRequest(tok, "erpcore.app", "/"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMissing))
	})

	t.Run("token for an organization that never existed", func(t *testing.T) {
		tok := f.orgToken(t, domain.NewOrgID(), domain.RoleUser)
		_, err := f.resolver.Resolve(authedRequest(tok, "erpcore.app", "/"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMissing))
	})
}

func TestResolve_CredentialFailures(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("missing bearer token", func(t *testing.T) {
		_, err := f.resolver.Resolve(authedRequest("", "erpcore.app", "/"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := f.resolver.Resolve(authedRequest("garbage", "erpcore.app", "/"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTokenMalformed))
	})

	t.Run("malformed organization header is rejected outright", func(t *testing.T) {
		req := authedRequest(f.orgToken(t, f.acme.ID, domain.RoleUser), "erpcore.app", "/")
		req.Header.Set(OrgHeader, "not-a-uuid")
		_, err := f.resolver.Resolve(req)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestResolveAdvisory(t *testing.T) {
	f := newResolverFixture(t)

	t.Run("subdomain resolves first", func(t *testing.T) {
		req := authedRequest("", "acme.erpcore.app", "/auth/login")
		req.Header.Set(OrgHeader, f.beta.ID.String())
		org, err := f.resolver.ResolveAdvisory(req)
		require.NoError(t, err)
		assert.Equal(t, f.acme.ID, org.ID)
	})

	t.Run("header used when no subdomain", func(t *testing.T) {
		req := authedRequest("", "erpcore.app", "/auth/login")
		req.Header.Set(OrgHeader, f.beta.ID.String())
		org, err := f.resolver.ResolveAdvisory(req)
		require.NoError(t, err)
		assert.Equal(t, f.beta.ID, org.ID)
	})

	t.Run("no signal yields missing context", func(t *testing.T) {
		_, err := f.resolver.ResolveAdvisory(authedRequest("", "erpcore.app", "/auth/login"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMissing))
	})

	t.Run("reserved subdomains are ignored", func(t *testing.T) {
		_, err := f.resolver.ResolveAdvisory(authedRequest("", "www.erpcore.app", "/auth/login"))
		require.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	f := newResolverFixture(t)
	tok := f.orgToken(t, f.acme.ID, domain.RoleAdmin)

	var captured *Context
	handler := f.resolver.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc, err := FromContext(r.Context())
		require.NoError(t, err)
		captured = tc
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("injects the context for valid requests", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(tok, "acme.erpcore.app", "/api/v1/vendors"))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured)
		orgID, _ := captured.OrgID()
		assert.Equal(t, f.acme.ID, orgID)
	})

	t.Run("mismatch never reaches the handler", func(t *testing.T) {
		captured = nil
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest(tok, "beta.erpcore.app", "/api/v1/vendors"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Nil(t, captured)
	})

	t.Run("expired token maps to unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, authedRequest("bad", "erpcore.app", "/"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestFromContext_Absent(t *testing.T) {
	_, err := FromContext(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTenantMissing))
}
