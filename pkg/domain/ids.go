// Package domain holds typed identifiers and the role ladder shared across
// the core. Typed IDs make it a compile error to pass an organization ID
// where a user ID is expected, which matters in tenant-isolation code paths.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "erpcore/pkg/domain-errors"
)

// OrgID identifies one organization (tenant).
type OrgID uuid.UUID

// UserID identifies one principal, organization-scoped or platform.
type UserID uuid.UUID

// NewOrgID returns a fresh random organization ID.
func NewOrgID() OrgID {
	return OrgID(uuid.New())
}

// NewUserID returns a fresh random user ID.
func NewUserID() UserID {
	return UserID(uuid.New())
}

// ParseOrgID parses a string into an OrgID, rejecting empty, malformed, and
// nil UUIDs. Use at trust boundaries (headers, path segments, token claims).
func ParseOrgID(s string) (OrgID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OrgID{}, err
	}
	return OrgID(u), nil
}

// ParseUserID parses a string into a UserID with the same rules as ParseOrgID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func (id OrgID) String() string  { return uuid.UUID(id).String() }
func (id UserID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the ID is the zero value.
func (id OrgID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Value and Scan delegate to uuid.UUID so the typed IDs cross database/sql.
// Defined types do not inherit the underlying type's methods.

func (id OrgID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

func (id *OrgID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }

func (id UserID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }

func (id *UserID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
