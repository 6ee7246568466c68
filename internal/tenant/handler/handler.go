// Package handler exposes organization lifecycle endpoints. Everything under
// /platform is gated on platform principals by the service layer.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"erpcore/internal/tenant"
	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/httputil"
)

// Service is the slice of the organization service the handler needs.
type Service interface {
	Provision(ctx context.Context, tc *tenant.Context, name string) (*models.Organization, error)
	Get(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error)
	List(ctx context.Context, tc *tenant.Context) ([]*models.Organization, error)
	Suspend(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error)
	Reactivate(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error)
	SoftDelete(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error)
	Activate(ctx context.Context, tc *tenant.Context, id domain.OrgID, plan models.Plan) (*models.Organization, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts organization endpoints on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/organization", h.HandleGetOwn)

	r.Route("/platform/organizations", func(r chi.Router) {
		r.Post("/", h.HandleProvision)
		r.Get("/", h.HandleList)
		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleSoftDelete)
			r.Post("/suspend", h.HandleSuspend)
			r.Post("/reactivate", h.HandleReactivate)
			r.Post("/activate", h.HandleActivate)
		})
	})
}

type provisionRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[provisionRequest](w, r)
	if !ok {
		return
	}

	org, err := h.service.Provision(ctx, tc, req.Name)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, org)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	orgs, err := h.service.List(r.Context(), tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, orgs)
}

// HandleGetOwn returns the caller's own organization.
func (h *Handler) HandleGetOwn(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	orgID, ok := tc.OrgID()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "platform principals have no organization"))
		return
	}

	org, err := h.service.Get(r.Context(), tc, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.withOrg(w, r, h.service.Get)
}

func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.withOrg(w, r, h.service.Suspend)
}

func (h *Handler) HandleReactivate(w http.ResponseWriter, r *http.Request) {
	h.withOrg(w, r, h.service.Reactivate)
}

func (h *Handler) HandleSoftDelete(w http.ResponseWriter, r *http.Request) {
	h.withOrg(w, r, h.service.SoftDelete)
}

type activateRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[activateRequest](w, r)
	if !ok {
		return
	}
	plan, err := models.ParsePlan(req.Plan)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.withOrg(w, r, func(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error) {
		return h.service.Activate(ctx, tc, id, plan)
	})
}

func (h *Handler) withOrg(w http.ResponseWriter, r *http.Request, op func(context.Context, *tenant.Context, domain.OrgID) (*models.Organization, error)) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	orgID, err := domain.ParseOrgID(chi.URLParam(r, "orgID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	org, err := op(ctx, tc, orgID)
	if err != nil {
		h.logger.WarnContext(ctx, "organization operation rejected",
			"org_id", orgID.String(), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, org)
}
