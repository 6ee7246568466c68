package tenant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	tenantmetrics "erpcore/internal/tenant/metrics"
	"erpcore/internal/tenant/models"
	"erpcore/internal/token"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/sentinel"
)

// OrgHeader carries an explicit tenant id on requests that cannot use
// subdomains (service-to-service calls, CLI tooling).
const OrgHeader = "X-Organization-ID"

// reservedSubdomains never map to organization slugs.
var reservedSubdomains = map[string]bool{
	"www":   true,
	"api":   true,
	"admin": true,
}

// OrganizationDirectory is the slice of the organization store the resolver
// needs.
type OrganizationDirectory interface {
	FindByID(ctx context.Context, id domain.OrgID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
}

// Resolver produces a tenant Context from one HTTP request.
//
// Precedence: the organization id in a verified token claim is
// authoritative. Subdomain, the X-Organization-ID header, and a /org/{id}
// path segment are advisory; any advisory signal that resolves to a
// different organization than the token claim fails the request rather than
// silently preferring one. This stops a stolen token from being replayed
// against another tenant's subdomain.
type Resolver struct {
	orgs       OrganizationDirectory
	codec      *token.Codec
	baseDomain string
	logger     *slog.Logger
	metrics    *tenantmetrics.Metrics
}

type ResolverOption func(*Resolver)

func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *tenantmetrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

// WithBaseDomain sets the apex domain so subdomain extraction does not rely
// on label-count heuristics (e.g. "erpcore.app" makes "acme.erpcore.app"
// resolve slug "acme").
func WithBaseDomain(d string) ResolverOption {
	return func(r *Resolver) { r.baseDomain = strings.ToLower(d) }
}

func NewResolver(orgs OrganizationDirectory, codec *token.Codec, opts ...ResolverOption) *Resolver {
	r := &Resolver{orgs: orgs, codec: codec, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve authenticates the request's bearer token and produces the tenant
// context for it. Called once per request, before any handler logic.
func (r *Resolver) Resolve(req *http.Request) (*Context, error) {
	bearer, err := bearerToken(req)
	if err != nil {
		return nil, err
	}

	claims, err := r.codec.Verify(req.Context(), bearer)
	if err != nil {
		return nil, err
	}

	if claims.Scope.IsPlatform() {
		// Platform principals have no owning organization; advisory signals
		// are browsing hints at most and never grant tenant scope.
		return NewContext(claims.UserID, claims.Role, domain.PlatformScope())
	}

	tokenOrg, _ := claims.Scope.OrgID()
	if err := r.checkAdvisorySignals(req, tokenOrg); err != nil {
		return nil, err
	}

	org, err := r.orgs.FindByID(req.Context(), tokenOrg)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeTenantMissing, "organization no longer exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "organization lookup failed")
	}
	if err := checkResolvable(org); err != nil {
		return nil, err
	}

	return NewContext(claims.UserID, claims.Role, domain.OrgScope(org.ID))
}

// ResolveAdvisory resolves an organization from request signals alone,
// without a token. Used by the login flow, which runs before any credential
// exists. Precedence among signals: subdomain, then header, then path.
func (r *Resolver) ResolveAdvisory(req *http.Request) (*models.Organization, error) {
	if slug := r.subdomainSlug(req); slug != "" {
		org, err := r.orgs.FindBySlug(req.Context(), slug)
		if err == nil {
			return org, checkResolvable(org)
		}
		if !dErrors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "organization lookup failed")
		}
	}

	for _, extract := range []func(*http.Request) (domain.OrgID, bool, error){headerOrg, pathOrg} {
		id, present, err := extract(req)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		org, err := r.orgs.FindByID(req.Context(), id)
		if err != nil {
			if dErrors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "organization lookup failed")
		}
		return org, checkResolvable(org)
	}

	return nil, dErrors.New(dErrors.CodeTenantMissing, "no organization resolved from request")
}

// checkAdvisorySignals verifies every request-supplied signal that resolves
// agrees with the token's organization.
func (r *Resolver) checkAdvisorySignals(req *http.Request, tokenOrg domain.OrgID) error {
	if slug := r.subdomainSlug(req); slug != "" {
		org, err := r.orgs.FindBySlug(req.Context(), slug)
		switch {
		case err == nil:
			if org.ID != tokenOrg {
				return dErrors.New(dErrors.CodeTenantMismatch, "token organization does not match request subdomain")
			}
		case !dErrors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "organization lookup failed")
		}
	}

	for _, extract := range []func(*http.Request) (domain.OrgID, bool, error){headerOrg, pathOrg} {
		id, present, err := extract(req)
		if err != nil {
			return err
		}
		if present && id != tokenOrg {
			return dErrors.New(dErrors.CodeTenantMismatch, "token organization does not match request signal")
		}
	}
	return nil
}

func checkResolvable(org *models.Organization) error {
	switch {
	case org.Status == models.StatusSuspended:
		return dErrors.New(dErrors.CodeOrgSuspended, "organization is suspended")
	case !org.Status.Resolvable():
		return dErrors.New(dErrors.CodeTenantMissing, "organization no longer exists")
	}
	return nil
}

func bearerToken(req *http.Request) (string, error) {
	header := req.Header.Get("Authorization")
	after, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || after == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")
	}
	return after, nil
}

// subdomainSlug extracts the candidate organization slug from the Host
// header, or "" when the host carries no tenant signal.
func (r *Resolver) subdomainSlug(req *http.Request) string {
	host := strings.ToLower(req.Host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var sub string
	if r.baseDomain != "" {
		trimmed, ok := strings.CutSuffix(host, "."+r.baseDomain)
		if !ok || strings.Contains(trimmed, ".") {
			return ""
		}
		sub = trimmed
	} else {
		parts := strings.Split(host, ".")
		if len(parts) < 3 {
			return ""
		}
		sub = parts[0]
	}

	if sub == "" || reservedSubdomains[sub] {
		return ""
	}
	return sub
}

func headerOrg(req *http.Request) (domain.OrgID, bool, error) {
	raw := strings.TrimSpace(req.Header.Get(OrgHeader))
	if raw == "" {
		return domain.OrgID{}, false, nil
	}
	id, err := domain.ParseOrgID(raw)
	if err != nil {
		return domain.OrgID{}, false, dErrors.New(dErrors.CodeBadRequest, "malformed organization header")
	}
	return id, true, nil
}

// pathOrg extracts the tenant segment from paths shaped like
// /api/v1/org/{id}/... .
func pathOrg(req *http.Request) (domain.OrgID, bool, error) {
	segments := strings.Split(strings.Trim(req.URL.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "org" || i+1 >= len(segments) {
			continue
		}
		id, err := domain.ParseOrgID(segments[i+1])
		if err != nil {
			return domain.OrgID{}, false, dErrors.New(dErrors.CodeBadRequest, "malformed organization path segment")
		}
		return id, true, nil
	}
	return domain.OrgID{}, false, nil
}

// Middleware resolves the tenant context and attaches it to the request, or
// fails the request before any handler logic runs.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tc, err := r.Resolve(req)
		if err != nil {
			code := dErrors.GetCode(err)
			r.metrics.ObserveRejection(string(code))
			r.logger.WarnContext(req.Context(), "tenant resolution rejected",
				"error", err, "host", req.Host)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(dErrors.ToHTTPStatus(code))
			_ = json.NewEncoder(w).Encode(map[string]string{"error": string(code)})
			return
		}

		r.metrics.ObserveResolution(tc.IsPlatform())
		next.ServeHTTP(w, req.WithContext(WithContext(req.Context(), tc)))
	})
}
