// Package auth owns user accounts and credential checks. A user is either
// an organization member or a platform operator; the two never mix, and the
// role tier must agree with the presence of an owning organization.
package auth

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
)

// User is an account. OrgID is nil exactly when the role is platform-tier.
type User struct {
	ID                 domain.UserID `gorm:"type:uuid;primaryKey" json:"id"`
	OrgID              *domain.OrgID `gorm:"type:uuid;uniqueIndex:idx_users_org_email" json:"org_id,omitempty"`
	Email              string        `gorm:"size:256;uniqueIndex:idx_users_org_email;not null" json:"email"`
	PasswordHash       string        `gorm:"size:128;not null" json:"-"`
	Role               domain.Role   `gorm:"size:32;not null" json:"role"`
	Active             bool          `gorm:"not null;default:true" json:"active"`
	MustChangePassword bool          `gorm:"not null;default:false" json:"must_change_password"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// NewOrgUser creates an organization member with a bcrypt-hashed password.
func NewOrgUser(orgID domain.OrgID, email, password string, role domain.Role) (*User, error) {
	if !role.IsOrg() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization users require an organization-tier role")
	}
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "organization users require an organization")
	}
	u, err := newUser(email, password, role)
	if err != nil {
		return nil, err
	}
	u.OrgID = &orgID
	return u, nil
}

// NewPlatformUser creates a platform operator. Platform users belong to no
// organization.
func NewPlatformUser(email, password string, role domain.Role) (*User, error) {
	if !role.IsPlatform() {
		return nil, dErrors.New(dErrors.CodeValidation, "platform users require a platform-tier role")
	}
	return newUser(email, password, role)
}

func newUser(email, password string, role domain.Role) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &User{
		ID:           domain.NewUserID(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsPlatform reports whether the user is a platform operator.
func (u *User) IsPlatform() bool { return u.Role.IsPlatform() }

// TenantScope maps the user to the scope their tokens carry.
func (u *User) TenantScope() (domain.Scope, error) {
	if u.IsPlatform() {
		return domain.PlatformScope(), nil
	}
	if u.OrgID == nil || u.OrgID.IsNil() {
		return domain.Scope{}, dErrors.New(dErrors.CodeInvariantViolation, "organization user without organization")
	}
	return domain.OrgScope(*u.OrgID), nil
}

// CheckPassword compares a candidate password against the stored hash.
func (u *User) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	return nil
}

// SetPassword replaces the stored hash and clears the change requirement.
func (u *User) SetPassword(password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.MustChangePassword = false
	u.UpdatedAt = time.Now()
	return nil
}

const minPasswordLength = 8

// HashPassword bcrypt-hashes a password after basic strength checks.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hashing password")
	}
	return string(hash), nil
}

// NormalizeEmail lowercases and trims an email so lookups and the per-org
// uniqueness constraint are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
