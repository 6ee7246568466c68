package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/auth/service"
	"erpcore/internal/tenant"
	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

type fakeService struct {
	loginOrg domain.OrgID
	loginErr error
}

func (f *fakeService) Login(_ context.Context, orgID domain.OrgID, email, password string) (*service.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loginOrg = orgID
	return &service.LoginResult{Token: "signed-token", Role: domain.RoleUser}, nil
}

func (f *fakeService) PlatformLogin(context.Context, string, string) (*service.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &service.LoginResult{Token: "platform-token", Role: domain.RoleSuperAdmin}, nil
}

func (f *fakeService) ChangePassword(context.Context, *tenant.Context, string, string) error {
	return f.loginErr
}

type fakeResolver struct {
	org *models.Organization
	err error
}

func (f *fakeResolver) ResolveAdvisory(*http.Request) (*models.Organization, error) {
	return f.org, f.err
}

func newRouter(svc Service, res AdvisoryResolver) chi.Router {
	h := New(svc, res, slog.New(slog.DiscardHandler))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.RegisterAuthenticated(r)
	return r
}

func TestHandleLogin(t *testing.T) {
	orgID := domain.NewOrgID()
	org := &models.Organization{ID: orgID, Slug: "acme", Status: models.StatusActive}

	t.Run("resolved org login returns a token", func(t *testing.T) {
		svc := &fakeService{}
		router := newRouter(svc, &fakeResolver{org: org})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@acme.test","password":"pw"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, orgID, svc.loginOrg)

		var body service.LoginResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "signed-token", body.Token)
	})

	t.Run("unresolvable org fails before credentials are read", func(t *testing.T) {
		router := newRouter(&fakeService{}, &fakeResolver{err: dErrors.New(dErrors.CodeTenantMissing, "no organization resolved from request")})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@acme.test","password":"pw"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("rate limited login answers 429", func(t *testing.T) {
		svc := &fakeService{loginErr: dErrors.New(dErrors.CodeRateLimited, "too many login attempts")}
		router := newRouter(svc, &fakeResolver{org: org})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"alice@acme.test","password":"pw"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router := newRouter(&fakeService{}, &fakeResolver{org: org})

		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandlePlatformLogin(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeResolver{err: dErrors.New(dErrors.CodeTenantMissing, "unused")})

	req := httptest.NewRequest(http.MethodPost, "/auth/platform/login", strings.NewReader(`{"email":"root@erpcore.test","password":"pw"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, "platform login must not consult advisory resolution")
}

func TestHandleChangePassword(t *testing.T) {
	t.Run("requires a tenant context", func(t *testing.T) {
		router := newRouter(&fakeService{}, &fakeResolver{})

		req := httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{"current_password":"a","new_password":"b"}`))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("succeeds with a tenant context", func(t *testing.T) {
		router := newRouter(&fakeService{}, &fakeResolver{})

		tc, err := tenant.NewContext(domain.NewUserID(), domain.RoleUser, domain.OrgScope(domain.NewOrgID()))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/auth/password", strings.NewReader(`{"current_password":"a","new_password":"b"}`))
		req = req.WithContext(tenant.WithContext(req.Context(), tc))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
