// Package handler exposes vendor CRUD endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"erpcore/internal/tenant"
	"erpcore/internal/vendors"
	"erpcore/internal/vendors/service"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/httputil"
)

// Service is the slice of the vendor service the handler needs.
type Service interface {
	Create(ctx context.Context, tc *tenant.Context, in service.Input) (*vendor.Vendor, error)
	Get(ctx context.Context, tc *tenant.Context, id uuid.UUID) (*vendor.Vendor, error)
	List(ctx context.Context, tc *tenant.Context) ([]*vendor.Vendor, error)
	Update(ctx context.Context, tc *tenant.Context, id uuid.UUID, in service.Input) (*vendor.Vendor, error)
	Delete(ctx context.Context, tc *tenant.Context, id uuid.UUID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts vendor endpoints on an authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/vendors", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{vendorID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
		})
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, err := tenant.FromContext(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	in, ok := httputil.Decode[service.Input](w, r)
	if !ok {
		return
	}

	v, err := h.service.Create(ctx, tc, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, v)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	vendors, err := h.service.List(r.Context(), tc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if vendors == nil {
		vendors = []*vendor.Vendor{}
	}
	httputil.WriteJSON(w, http.StatusOK, vendors)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, id, ok := h.prepare(w, r)
	if !ok {
		return
	}

	v, err := h.service.Get(ctx, tc, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, id, ok := h.prepare(w, r)
	if !ok {
		return
	}
	in, ok := httputil.Decode[service.Input](w, r)
	if !ok {
		return
	}

	v, err := h.service.Update(ctx, tc, id, in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tc, id, ok := h.prepare(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(ctx, tc, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*tenant.Context, uuid.UUID, bool) {
	tc, err := tenant.FromContext(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "vendorID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "malformed vendor id"))
		return nil, uuid.Nil, false
	}
	return tc, id, true
}
