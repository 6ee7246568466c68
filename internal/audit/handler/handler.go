// Package handler exposes read access to the audit trail. Org admins see
// their own organization's entries; platform principals see the platform
// scope.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"erpcore/internal/audit"
	"erpcore/internal/authz"
	"erpcore/internal/tenant"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/httputil"
)

// Lister is the read side of the audit store.
type Lister interface {
	ListByOrg(ctx context.Context, orgID domain.OrgID, limit int) ([]audit.Entry, error)
	ListPlatform(ctx context.Context, limit int) ([]audit.Entry, error)
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type Handler struct {
	store  Lister
	logger *slog.Logger
}

func New(store Lister, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts audit endpoints on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleListOwn)
	r.Get("/platform/audit", h.HandleListPlatform)
}

// HandleListOwn handles GET /audit for org admins.
func (h *Handler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := authz.Require(tc, domain.RoleOrgAdmin); err != nil {
		httputil.WriteError(w, err)
		return
	}
	orgID, ok := tc.OrgID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "platform principals use the platform audit listing"))
		return
	}

	entries, err := h.store.ListByOrg(ctx, orgID, listLimit(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "audit listing failed", "org_id", orgID.String(), "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "listing audit entries"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleListPlatform handles GET /platform/audit.
func (h *Handler) HandleListPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := authz.RequirePlatform(tc); err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.store.ListPlatform(ctx, listLimit(r))
	if err != nil {
		h.logger.ErrorContext(ctx, "platform audit listing failed", "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "listing audit entries"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func listLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
