// Package token signs and verifies session tokens. The codec stays ignorant
// of the organization registry: a syntactically valid token naming an
// unknown or suspended organization verifies fine here and is rejected by
// the tenant resolver.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/requestcontext"
)

const (
	scopeOrganization = "organization"
	scopePlatform     = "platform"
)

// Claims is the verified content of a session token.
type Claims struct {
	UserID    domain.UserID
	Role      domain.Role
	Scope     domain.Scope
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// wireClaims is the JWT representation. The scope claim is the explicit
// none-marker: "platform" tokens carry no org_id, "organization" tokens must.
type wireClaims struct {
	Role  string `json:"role"`
	Scope string `json:"scope"`
	OrgID string `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 session tokens.
type Codec struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// minKeyLen guards against trivially brute-forceable HMAC keys.
const minKeyLen = 32

// NewCodec validates key material up front; a misconfigured signing key is a
// startup failure, never a per-request error.
func NewCodec(signingKey string, issuer string, ttl time.Duration) (*Codec, error) {
	if len(signingKey) < minKeyLen {
		return nil, dErrors.Newf(dErrors.CodeSigningKey, "signing key must be at least %d bytes", minKeyLen)
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeSigningKey, "token ttl must be positive")
	}
	return &Codec{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}, nil
}

// Issue produces a signed token binding the principal's id, role, and scope.
// Expiry is the codec's configured duration from the request-scoped now.
func (c *Codec) Issue(ctx context.Context, userID domain.UserID, role domain.Role, scope domain.Scope) (string, error) {
	if err := scope.Validate(); err != nil {
		return "", err
	}
	if scope.IsPlatform() != role.IsPlatform() {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "role tier and scope variant must agree")
	}

	now := requestcontext.Now(ctx)
	wc := wireClaims{
		Role:  role.String(),
		Scope: scopePlatform,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	if orgID, ok := scope.OrgID(); ok {
		wc.Scope = scopeOrganization
		wc.OrgID = orgID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wc).SignedString(c.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeSigningKey, "failed to sign token")
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the typed claims.
func (c *Codec) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	now := requestcontext.Now(ctx)
	parsed, err := jwt.ParseWithClaims(tokenString, &wireClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeTokenExpired, "token has expired")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeTokenMalformed, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid token")
	}

	wc, ok := parsed.Claims.(*wireClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "invalid token claims")
	}
	return c.typedClaims(wc)
}

func (c *Codec) typedClaims(wc *wireClaims) (*Claims, error) {
	userID, err := domain.ParseUserID(wc.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token subject is not a valid user id")
	}
	role, err := domain.ParseRole(wc.Role)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token carries an unknown role")
	}

	var scope domain.Scope
	switch wc.Scope {
	case scopePlatform:
		if wc.OrgID != "" || !role.IsPlatform() {
			return nil, dErrors.New(dErrors.CodeTokenMalformed, "platform token with organization claims")
		}
		scope = domain.PlatformScope()
	case scopeOrganization:
		orgID, err := domain.ParseOrgID(wc.OrgID)
		if err != nil || role.IsPlatform() {
			return nil, dErrors.New(dErrors.CodeTokenMalformed, "organization token without a valid org id")
		}
		scope = domain.OrgScope(orgID)
	default:
		return nil, dErrors.New(dErrors.CodeTokenMalformed, "token scope marker is missing")
	}

	claims := &Claims{
		UserID: userID,
		Role:   role,
		Scope:  scope,
	}
	if wc.IssuedAt != nil {
		claims.IssuedAt = wc.IssuedAt.Time
	}
	if wc.ExpiresAt != nil {
		claims.ExpiresAt = wc.ExpiresAt.Time
	}
	return claims, nil
}
