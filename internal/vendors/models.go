// Package vendor manages supplier records, the first tenant-owned business
// entity. Every row carries its owning organization, stamped from the tenant
// context at creation and never reassigned.
package vendor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

// Vendor is a supplier an organization purchases from.
type Vendor struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID domain.OrgID `gorm:"type:uuid;column:organization_id;index;not null" json:"organization_id"`
	Name           string       `gorm:"size:128;not null" json:"name"`
	Email          string       `gorm:"size:256" json:"email"`
	Phone          string       `gorm:"size:32" json:"phone"`
	TaxID          string       `gorm:"size:64" json:"tax_id"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Vendor) TableName() string { return "vendors" }

// OwningOrg implements the ownership contract used by scope checks.
func (v *Vendor) OwningOrg() domain.OrgID { return v.OrganizationID }

// New creates a vendor owned by the given organization.
func New(orgID domain.OrgID, name, email, phone, taxID string, now time.Time) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "vendor name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "vendor name must be 128 characters or less")
	}
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "vendor requires an owning organization")
	}
	return &Vendor{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           name,
		Email:          strings.TrimSpace(email),
		Phone:          strings.TrimSpace(phone),
		TaxID:          strings.TrimSpace(taxID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Update applies the mutable fields. Ownership is untouched.
func (v *Vendor) Update(name, email, phone, taxID string, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "vendor name cannot be empty")
	}
	v.Name = name
	v.Email = strings.TrimSpace(email)
	v.Phone = strings.TrimSpace(phone)
	v.TaxID = strings.TrimSpace(taxID)
	v.UpdatedAt = now
	return nil
}
