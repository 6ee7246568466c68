// Package httptransport assembles the HTTP surface: public endpoints, login
// endpoints behind the rate limiter, and the authenticated group behind
// tenant resolution.
package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "erpcore/internal/audit/handler"
	authhandler "erpcore/internal/auth/handler"
	"erpcore/internal/ratelimit"
	"erpcore/internal/tenant"
	tenanthandler "erpcore/internal/tenant/handler"
	vendorhandler "erpcore/internal/vendors/handler"
	"erpcore/pkg/platform/middleware/metadata"
	"erpcore/pkg/platform/middleware/requesttime"
)

const (
	loginLimitAttempts = 20
	loginLimitWindow   = 15 * time.Minute
)

// Deps carries the constructed handlers and middleware the router mounts.
type Deps struct {
	Resolver *tenant.Resolver
	Limiter  *ratelimit.Limiter
	Auth     *authhandler.Handler
	Tenant   *tenanthandler.Handler
	Vendor   *vendorhandler.Handler
	Audit    *audithandler.Handler
}

// NewRouter wires every endpoint. The per-address login limit here is a
// coarse transport backstop; the service applies the per-account limit.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(deps.Limiter.Middleware("login_source", loginLimitAttempts, loginLimitWindow, ratelimit.KeyByClientIP))
		deps.Auth.RegisterPublic(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Resolver.Middleware)
		deps.Auth.RegisterAuthenticated(r)
		deps.Tenant.Register(r)
		deps.Vendor.Register(r)
		deps.Audit.Register(r)
	})

	return r
}
