package models

import (
	"regexp"
	"strings"
	"time"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

// Status is an organization's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	// StatusDeleted is terminal. Organizations are never hard-deleted so the
	// audit trail keeps a referent.
	StatusDeleted Status = "deleted"
)

// allowedTransitions encodes the lifecycle state machine. Deleted has no
// outgoing edges.
var allowedTransitions = map[Status][]Status{
	StatusTrial:     {StatusActive, StatusSuspended, StatusDeleted},
	StatusActive:    {StatusSuspended, StatusDeleted},
	StatusSuspended: {StatusActive, StatusDeleted},
	StatusDeleted:   {},
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Resolvable reports whether the tenant resolver may produce a context for
// this organization.
func (s Status) Resolvable() bool {
	return s == StatusActive || s == StatusTrial
}

// Plan is an organization's subscription tier.
type Plan string

const (
	PlanTrial      Plan = "trial"
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan validates a plan string from an untrusted source.
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	switch p {
	case PlanTrial, PlanBasic, PlanPremium, PlanEnterprise:
		return p, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown plan %q", s)
}

// Organization is the aggregate root for one tenant.
//
// Invariants:
//   - Slug is globally unique and immutable once issued; subdomain
//     resolution depends on it never changing.
//   - Status transitions follow allowedTransitions; deleted is terminal.
//   - Rows are never hard-deleted.
type Organization struct {
	ID             domain.OrgID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug           string       `gorm:"uniqueIndex;size:64" json:"slug"`
	Name           string       `gorm:"size:128" json:"name"`
	Status         Status       `gorm:"size:16;index" json:"status"`
	Plan           Plan         `gorm:"size:16" json:"plan"`
	MaxUsers       int          `json:"max_users"`
	StorageLimitGB int          `json:"storage_limit_gb"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Trial plan defaults, matching platform provisioning.
const (
	TrialMaxUsers       = 5
	TrialStorageLimitGB = 1
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// NewOrganization provisions a trial organization. The slug must already be
// normalized and unique; stores enforce uniqueness.
func NewOrganization(id domain.OrgID, slug, name string, now time.Time) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "organization name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "organization name must be 128 characters or less")
	}
	if !slugPattern.MatchString(slug) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "invalid organization slug %q", slug)
	}
	return &Organization{
		ID:             id,
		Slug:           slug,
		Name:           name,
		Status:         StatusTrial,
		Plan:           PlanTrial,
		MaxUsers:       TrialMaxUsers,
		StorageLimitGB: TrialStorageLimitGB,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CanTransition checks a lifecycle move without applying it. Use with
// ApplyTransition inside store Execute callbacks.
func (o *Organization) CanTransition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"organization cannot move from %s to %s", o.Status, next)
	}
	return nil
}

// ApplyTransition moves the organization to next. Call CanTransition first.
func (o *Organization) ApplyTransition(next Status, now time.Time) {
	o.Status = next
	o.UpdatedAt = now
}

// Suspend validates and applies suspension in one call.
func (o *Organization) Suspend(now time.Time) error {
	if err := o.CanTransition(StatusSuspended); err != nil {
		return err
	}
	o.ApplyTransition(StatusSuspended, now)
	return nil
}

// Reactivate returns a suspended organization to active.
func (o *Organization) Reactivate(now time.Time) error {
	if err := o.CanTransition(StatusActive); err != nil {
		return err
	}
	o.ApplyTransition(StatusActive, now)
	return nil
}

// SoftDelete moves the organization to the terminal deleted status.
func (o *Organization) SoftDelete(now time.Time) error {
	if err := o.CanTransition(StatusDeleted); err != nil {
		return err
	}
	o.ApplyTransition(StatusDeleted, now)
	return nil
}

// Activate converts a trial organization to a paying plan.
func (o *Organization) Activate(plan Plan, now time.Time) error {
	if err := o.CanTransition(StatusActive); err != nil {
		return err
	}
	o.Plan = plan
	o.ApplyTransition(StatusActive, now)
	return nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// SlugFromName derives a slug candidate from an organization name. Callers
// append a numeric suffix on collision.
func SlugFromName(name string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
	if len(slug) > 15 {
		slug = slug[:15]
	}
	return slug
}
