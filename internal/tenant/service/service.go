// Package service implements organization lifecycle management. All
// operations here are platform-gated except reading the caller's own
// organization.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"erpcore/internal/audit"
	"erpcore/internal/authz"
	"erpcore/internal/tenant"
	"erpcore/internal/tenant/metrics"
	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/sentinel"
	"erpcore/pkg/requestcontext"
)

// Store persists organizations.
type Store interface {
	Create(ctx context.Context, org *models.Organization) error
	FindByID(ctx context.Context, id domain.OrgID) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	List(ctx context.Context) ([]*models.Organization, error)
}

// Recorder is the slice of the audit recorder the service needs.
type Recorder interface {
	Record(ctx context.Context, tc *tenant.Context, entityType, entityID string, action audit.Action, changes audit.Changes)
}

type Service struct {
	orgs     Store
	recorder Recorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func New(orgs Store, opts ...Option) *Service {
	s := &Service{
		orgs:   orgs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// maxSlugAttempts bounds the uniqueness suffix search during provisioning.
const maxSlugAttempts = 50

// Provision creates a new organization on trial defaults. The slug is
// derived from the name; collisions get a numeric suffix.
func (s *Service) Provision(ctx context.Context, tc *tenant.Context, name string) (*models.Organization, error) {
	if err := authz.RequirePlatform(tc); err != nil {
		return nil, err
	}

	slug, err := s.availableSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	org, err := models.NewOrganization(domain.NewOrgID(), slug, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "organization slug already taken")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating organization")
	}

	s.metrics.IncrementOrgsCreated()
	s.audit(ctx, tc, org, audit.ActionCreate, audit.Changes{
		"name": {New: org.Name},
		"slug": {New: org.Slug},
		"plan": {New: org.Plan},
	})
	s.logger.InfoContext(ctx, "organization provisioned",
		"org_id", org.ID.String(), "slug", org.Slug)
	return org, nil
}

func (s *Service) availableSlug(ctx context.Context, name string) (string, error) {
	base := models.SlugFromName(name)
	if base == "" {
		return "", dErrors.New(dErrors.CodeValidation, "organization name yields no usable slug")
	}

	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		_, err := s.orgs.FindBySlug(ctx, candidate)
		if errors.Is(err, sentinel.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "checking slug availability")
		}
	}
	return "", dErrors.Newf(dErrors.CodeConflict, "no free slug near %q", base)
}

// Get returns an organization. Platform principals may read any org;
// organization principals only their own.
func (s *Service) Get(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error) {
	if tc == nil {
		return nil, dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}
	if !tc.IsPlatform() {
		own, _ := tc.OrgID()
		if own != id {
			return nil, dErrors.New(dErrors.CodeCrossTenant, "organization belongs to another tenant")
		}
	}
	return s.find(ctx, id)
}

// List returns all organizations, platform only.
func (s *Service) List(ctx context.Context, tc *tenant.Context) ([]*models.Organization, error) {
	if err := authz.RequirePlatform(tc); err != nil {
		return nil, err
	}
	orgs, err := s.orgs.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing organizations")
	}
	return orgs, nil
}

// Suspend cuts off an organization. Resolution stops immediately for new
// requests; outstanding tokens keep working until they expire.
func (s *Service) Suspend(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error) {
	return s.transition(ctx, tc, id, func(org *models.Organization) error {
		return org.Suspend(requestcontext.Now(ctx))
	})
}

// Reactivate lifts a suspension.
func (s *Service) Reactivate(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error) {
	return s.transition(ctx, tc, id, func(org *models.Organization) error {
		return org.Reactivate(requestcontext.Now(ctx))
	})
}

// SoftDelete retires an organization permanently. The row stays for the
// audit trail; the org never resolves again.
func (s *Service) SoftDelete(ctx context.Context, tc *tenant.Context, id domain.OrgID) (*models.Organization, error) {
	return s.transition(ctx, tc, id, func(org *models.Organization) error {
		return org.SoftDelete(requestcontext.Now(ctx))
	})
}

// Activate upgrades a trial organization to a paying plan.
func (s *Service) Activate(ctx context.Context, tc *tenant.Context, id domain.OrgID, plan models.Plan) (*models.Organization, error) {
	return s.transition(ctx, tc, id, func(org *models.Organization) error {
		return org.Activate(plan, requestcontext.Now(ctx))
	})
}

func (s *Service) transition(ctx context.Context, tc *tenant.Context, id domain.OrgID, apply func(*models.Organization) error) (*models.Organization, error) {
	if err := authz.RequirePlatform(tc); err != nil {
		return nil, err
	}

	org, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	before := org.Status
	if err := apply(org); err != nil {
		return nil, err
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "saving organization")
	}

	s.audit(ctx, tc, org, audit.ActionUpdate, audit.Changes{
		"status": {Old: before, New: org.Status},
	})
	s.logger.InfoContext(ctx, "organization transitioned",
		"org_id", org.ID.String(), "from", string(before), "to", string(org.Status))
	return org, nil
}

func (s *Service) find(ctx context.Context, id domain.OrgID) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "organization not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading organization")
	}
	return org, nil
}

func (s *Service) audit(ctx context.Context, tc *tenant.Context, org *models.Organization, action audit.Action, changes audit.Changes) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, tc, "organization", org.ID.String(), action, changes)
}
