// Package service implements vendor operations under the tenant isolation
// contracts: reads need member role, mutations need admin, every row is
// stamped with the acting organization, and by-id access verifies ownership
// before anything else happens.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"erpcore/internal/audit"
	"erpcore/internal/authz"
	"erpcore/internal/scope"
	"erpcore/internal/tenant"
	"erpcore/internal/vendors"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/sentinel"
	"erpcore/pkg/requestcontext"
)

// Store persists vendors. List receives the tenant context so the filter is
// part of the query itself.
type Store interface {
	Create(ctx context.Context, v *vendor.Vendor) error
	FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error)
	List(ctx context.Context, tc *tenant.Context) ([]*vendor.Vendor, error)
	Update(ctx context.Context, v *vendor.Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Recorder is the slice of the audit recorder the service needs.
type Recorder interface {
	Record(ctx context.Context, tc *tenant.Context, entityType, entityID string, action audit.Action, changes audit.Changes)
}

type Service struct {
	vendors  Store
	recorder Recorder
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func New(vendors Store, opts ...Option) *Service {
	s := &Service{
		vendors: vendors,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the caller-settable vendor fields.
type Input struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	TaxID string `json:"tax_id"`
}

// Create stamps the new vendor with the acting organization. The owner
// comes from the tenant context, never from the request body.
func (s *Service) Create(ctx context.Context, tc *tenant.Context, in Input) (*vendor.Vendor, error) {
	if err := authz.Require(tc, domain.RoleAdmin); err != nil {
		return nil, err
	}
	orgID, ok := tc.OrgID()
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "vendors are created inside an organization")
	}

	v, err := vendor.New(orgID, in.Name, in.Email, in.Phone, in.TaxID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.vendors.Create(ctx, v); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating vendor")
	}

	s.audit(ctx, tc, v, audit.ActionCreate, audit.Changes{
		"name": {New: v.Name},
	})
	return v, nil
}

// Get loads a vendor by id and verifies ownership before returning it.
func (s *Service) Get(ctx context.Context, tc *tenant.Context, id uuid.UUID) (*vendor.Vendor, error) {
	if err := authz.Require(tc, domain.RoleUser, authz.AllowPlatformOverride()); err != nil {
		return nil, err
	}
	return s.load(ctx, tc, id)
}

// List returns the vendors visible to the acting context.
func (s *Service) List(ctx context.Context, tc *tenant.Context) ([]*vendor.Vendor, error) {
	if err := authz.Require(tc, domain.RoleUser, authz.AllowPlatformOverride()); err != nil {
		return nil, err
	}
	vendors, err := s.vendors.List(ctx, tc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing vendors")
	}
	return vendors, nil
}

// Update modifies a vendor after an ownership check.
func (s *Service) Update(ctx context.Context, tc *tenant.Context, id uuid.UUID, in Input) (*vendor.Vendor, error) {
	if err := authz.Require(tc, domain.RoleAdmin); err != nil {
		return nil, err
	}
	v, err := s.load(ctx, tc, id)
	if err != nil {
		return nil, err
	}

	changes := audit.Changes{}
	if v.Name != in.Name {
		changes["name"] = audit.FieldChange{Old: v.Name, New: in.Name}
	}
	if v.Email != in.Email {
		changes["email"] = audit.FieldChange{Old: v.Email, New: in.Email}
	}

	if err := v.Update(in.Name, in.Email, in.Phone, in.TaxID, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.vendors.Update(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vendor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "saving vendor")
	}

	s.audit(ctx, tc, v, audit.ActionUpdate, changes)
	return v, nil
}

// Delete removes a vendor after an ownership check.
func (s *Service) Delete(ctx context.Context, tc *tenant.Context, id uuid.UUID) error {
	if err := authz.Require(tc, domain.RoleAdmin); err != nil {
		return err
	}
	v, err := s.load(ctx, tc, id)
	if err != nil {
		return err
	}

	if err := s.vendors.Delete(ctx, v.ID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "vendor not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "deleting vendor")
	}

	s.audit(ctx, tc, v, audit.ActionDelete, audit.Changes{
		"name": {Old: v.Name},
	})
	return nil
}

// load fetches by id and verifies ownership. Foreign and missing vendors are
// indistinguishable to the caller.
func (s *Service) load(ctx context.Context, tc *tenant.Context, id uuid.UUID) (*vendor.Vendor, error) {
	v, err := s.vendors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "vendor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading vendor")
	}
	if err := scope.AssertOwnership(v, tc); err != nil {
		s.logger.WarnContext(ctx, "cross-tenant vendor access blocked",
			"vendor_id", id.String(), "actor", tc.Principal.String())
		return nil, err
	}
	return v, nil
}

func (s *Service) audit(ctx context.Context, tc *tenant.Context, v *vendor.Vendor, action audit.Action, changes audit.Changes) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, tc, "vendor", v.ID.String(), action, changes)
}
