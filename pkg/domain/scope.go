package domain

import dErrors "erpcore/pkg/domain-errors"

// Scope is a tagged union over {Platform, Organization(id)}. It replaces the
// "nullable organization id" convention: call sites must ask which variant
// they hold instead of special-casing a nil.
//
// The zero value is invalid; construct via PlatformScope or OrgScope.
type Scope struct {
	platform bool
	orgID    OrgID
}

// PlatformScope returns the scope of a platform principal: no owning
// organization, global reach.
func PlatformScope() Scope {
	return Scope{platform: true}
}

// OrgScope returns the scope of an organization principal.
func OrgScope(id OrgID) Scope {
	return Scope{orgID: id}
}

// IsPlatform reports whether the scope is platform-wide.
func (s Scope) IsPlatform() bool {
	return s.platform
}

// OrgID returns the owning organization id and true for organization scopes,
// and the zero id and false for platform scopes.
func (s Scope) OrgID() (OrgID, bool) {
	if s.platform {
		return OrgID{}, false
	}
	return s.orgID, true
}

// Validate rejects the zero value (an organization scope with no id).
func (s Scope) Validate() error {
	if !s.platform && s.orgID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "organization scope requires an organization id")
	}
	return nil
}

// String renders the scope for logs and audit entries.
func (s Scope) String() string {
	if s.platform {
		return "platform"
	}
	return s.orgID.String()
}
