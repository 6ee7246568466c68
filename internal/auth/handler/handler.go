// Package handler wires authentication endpoints to the auth service.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"erpcore/internal/auth/service"
	"erpcore/internal/tenant"
	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	"erpcore/pkg/platform/httputil"
)

// Service is the slice of the auth service the handler needs.
type Service interface {
	Login(ctx context.Context, orgID domain.OrgID, email, password string) (*service.LoginResult, error)
	PlatformLogin(ctx context.Context, email, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, tc *tenant.Context, currentPassword, newPassword string) error
}

// AdvisoryResolver locates the organization a login request addresses
// before any credential exists.
type AdvisoryResolver interface {
	ResolveAdvisory(req *http.Request) (*models.Organization, error)
}

type Handler struct {
	service  Service
	resolver AdvisoryResolver
	logger   *slog.Logger
}

func New(service Service, resolver AdvisoryResolver, logger *slog.Logger) *Handler {
	return &Handler{service: service, resolver: resolver, logger: logger}
}

// RegisterPublic mounts the unauthenticated endpoints.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/platform/login", h.HandlePlatformLogin)
}

// RegisterAuthenticated mounts endpoints that need a resolved tenant context.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/password", h.HandleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /auth/login. The target organization comes from
// the request's advisory signals (subdomain, header, or path).
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	org, err := h.resolver.ResolveAdvisory(r)
	if err != nil {
		h.logger.WarnContext(ctx, "login could not resolve organization", "host", r.Host, "error", err)
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[loginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.Login(ctx, org.ID, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandlePlatformLogin handles POST /auth/platform/login.
func (h *Handler) HandlePlatformLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[loginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.service.PlatformLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandleChangePassword handles POST /auth/password.
func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.Decode[changePasswordRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.ChangePassword(ctx, tc, req.CurrentPassword, req.NewPassword); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "password changed", "user_id", tc.Principal.String())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
