// Package scope narrows persistence queries to the acting tenant's rows and
// verifies ownership of records fetched by primary key.
//
// These are two distinct operations: list endpoints filter at query time so
// foreign rows are never loaded, while detail/update/delete endpoints fetch
// by id first and must verify afterwards. Conflating them would either leak
// the existence of foreign records or double-query.
package scope

import (
	"fmt"

	"gorm.io/gorm"

	"erpcore/internal/tenant"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

// DefaultOwnerColumn is the conventional owning-organization column on
// tenant-owned tables.
const DefaultOwnerColumn = "organization_id"

// Owned is implemented by any tenant-owned record: a row carrying an
// owning-organization id set at creation and never reassigned.
type Owned interface {
	OwningOrg() domain.OrgID
}

// Filter returns a gorm scope constraining the query to rows whose owner
// column equals the context's organization. Platform contexts pass the query
// through unmodified: global access is the explicit variant, never a
// default. A nil or invalid context fails closed, matching zero rows.
func Filter(column string, tc *tenant.Context) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tc == nil {
			return db.Where("1 = 0")
		}
		if tc.IsPlatform() {
			return db
		}
		orgID, ok := tc.OrgID()
		if !ok || orgID.IsNil() {
			return db.Where("1 = 0")
		}
		return db.Where(fmt.Sprintf("%s = ?", column), orgID.String())
	}
}

// ForContext is Filter over the conventional organization_id column.
func ForContext(tc *tenant.Context) func(*gorm.DB) *gorm.DB {
	return Filter(DefaultOwnerColumn, tc)
}

// AssertOwnership fails when a record loaded outside the list filter (a
// lookup by primary key from a URL parameter, typically) belongs to a
// different organization than the acting context. The resulting error
// surfaces as not-found so foreign record existence is never confirmed.
func AssertOwnership(rec Owned, tc *tenant.Context) error {
	if tc == nil {
		return dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}
	if tc.IsPlatform() {
		return nil
	}
	orgID, ok := tc.OrgID()
	if !ok {
		return dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}
	if rec.OwningOrg() != orgID {
		return dErrors.New(dErrors.CodeCrossTenant, "record does not belong to the acting organization")
	}
	return nil
}
