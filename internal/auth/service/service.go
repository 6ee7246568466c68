// Package service implements credential verification, token issuance, and
// account management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"erpcore/internal/audit"
	"erpcore/internal/auth"
	"erpcore/internal/auth/metrics"
	"erpcore/internal/authz"
	"erpcore/internal/ratelimit"
	"erpcore/internal/tenant"
	"erpcore/internal/token"
	"erpcore/pkg/domain"
	dErrors "erpcore/pkg/domain-errors"
	"erpcore/pkg/platform/sentinel"
	"erpcore/pkg/requestcontext"
)

// Store persists user accounts. A nil orgID in FindByEmail addresses the
// platform-operator namespace.
type Store interface {
	Create(ctx context.Context, user *auth.User) error
	FindByID(ctx context.Context, id domain.UserID) (*auth.User, error)
	FindByEmail(ctx context.Context, orgID *domain.OrgID, email string) (*auth.User, error)
	Update(ctx context.Context, user *auth.User) error
}

// Recorder is the slice of the audit recorder the service needs.
type Recorder interface {
	Record(ctx context.Context, tc *tenant.Context, entityType, entityID string, action audit.Action, changes audit.Changes)
}

const (
	loginAction      = "login"
	loginMaxAttempts = 5
	loginWindow      = 15 * time.Minute

	passwordChangeAction      = "password_change"
	passwordChangeMaxAttempts = 5
	passwordChangeWindow      = 15 * time.Minute
)

type Service struct {
	users    Store
	codec    *token.Codec
	limiter  *ratelimit.Limiter
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

func New(users Store, codec *token.Codec, limiter *ratelimit.Limiter, opts ...Option) *Service {
	s := &Service{
		users:   users,
		codec:   codec,
		limiter: limiter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult carries the issued credential and what the client needs to
// know about the account it belongs to.
type LoginResult struct {
	Token              string      `json:"token"`
	UserID             string      `json:"user_id"`
	Role               domain.Role `json:"role"`
	MustChangePassword bool        `json:"must_change_password"`
}

// Login authenticates an organization member and issues a token scoped to
// their organization. The orgID comes from advisory resolution of the login
// request; it only selects which org's user namespace to check.
func (s *Service) Login(ctx context.Context, orgID domain.OrgID, email, password string) (*LoginResult, error) {
	if orgID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "login requires an organization")
	}
	return s.login(ctx, &orgID, email, password, "organization")
}

// PlatformLogin authenticates a platform operator and issues a
// platform-scoped token.
func (s *Service) PlatformLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	return s.login(ctx, nil, email, password, "platform")
}

func (s *Service) login(ctx context.Context, orgID *domain.OrgID, email, password, tier string) (*LoginResult, error) {
	email = auth.NormalizeEmail(email)
	if err := s.checkLoginBudget(ctx, email, tier); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, orgID, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.RecordLoginFailed(tier, "unknown_account")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "looking up account")
	}
	if !user.Active {
		s.metrics.RecordLoginFailed(tier, "inactive")
		s.auditLogin(ctx, user, audit.ActionLoginFailed)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := user.CheckPassword(password); err != nil {
		s.metrics.RecordLoginFailed(tier, "bad_password")
		s.auditLogin(ctx, user, audit.ActionLoginFailed)
		return nil, err
	}

	scope, err := user.TenantScope()
	if err != nil {
		return nil, err
	}
	signed, err := s.codec.Issue(ctx, user.ID, user.Role, scope)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(tier)
	s.auditLogin(ctx, user, audit.ActionLogin)
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID.String(), "tier", tier)

	return &LoginResult{
		Token:              signed,
		UserID:             user.ID.String(),
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	}, nil
}

// checkLoginBudget counts the attempt against the email+address pair so a
// single source cannot brute-force one account, while the account's
// legitimate owner elsewhere keeps their own budget.
func (s *Service) checkLoginBudget(ctx context.Context, email, tier string) error {
	key := email + "|" + requestcontext.ClientIP(ctx)
	res, err := s.limiter.CheckAndIncrement(ctx, key, loginAction, loginMaxAttempts, loginWindow)
	if err != nil {
		// An unavailable counter backend must not lock everyone out.
		s.logger.ErrorContext(ctx, "login rate check failed", "error", err)
		return nil
	}
	if !res.Allowed {
		s.metrics.RecordLoginFailed(tier, "rate_limited")
		return dErrors.New(dErrors.CodeRateLimited, "too many login attempts")
	}
	return nil
}

func (s *Service) auditLogin(ctx context.Context, user *auth.User, action audit.Action) {
	if s.recorder == nil {
		return
	}
	scope, err := user.TenantScope()
	if err != nil {
		return
	}
	tc, err := tenant.NewContext(user.ID, user.Role, scope)
	if err != nil {
		return
	}
	s.recorder.Record(ctx, tc, "user", user.ID.String(), action, nil)
}

// ChangePassword verifies the current password before replacing it.
func (s *Service) ChangePassword(ctx context.Context, tc *tenant.Context, currentPassword, newPassword string) error {
	if tc == nil {
		return dErrors.New(dErrors.CodeTenantMissing, "no tenant context")
	}

	res, err := s.limiter.CheckAndIncrement(ctx, tc.Principal.String(), passwordChangeAction, passwordChangeMaxAttempts, passwordChangeWindow)
	if err == nil && !res.Allowed {
		return dErrors.New(dErrors.CodeRateLimited, "too many password changes")
	}

	user, err := s.users.FindByID(ctx, tc.Principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "looking up account")
	}
	if err := user.CheckPassword(currentPassword); err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "saving password")
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, tc, "user", user.ID.String(), audit.ActionUpdate, audit.Changes{
			"password": {Old: "[redacted]", New: "[redacted]"},
		})
	}
	return nil
}

// CreateOrgUser provisions a member inside the caller's organization. Org
// admins manage their own roster; platform principals may provision into any
// organization they name.
func (s *Service) CreateOrgUser(ctx context.Context, tc *tenant.Context, orgID domain.OrgID, email, password string, role domain.Role) (*auth.User, error) {
	if err := authz.Require(tc, domain.RoleAdmin, authz.AllowPlatformOverride()); err != nil {
		return nil, err
	}
	if !tc.IsPlatform() {
		own, _ := tc.OrgID()
		if own != orgID {
			return nil, dErrors.New(dErrors.CodeCrossTenant, "cannot provision users outside your organization")
		}
	}

	user, err := auth.NewOrgUser(orgID, email, password, role)
	if err != nil {
		return nil, err
	}
	user.MustChangePassword = true

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating user")
	}

	s.metrics.RecordUserCreated()
	if s.recorder != nil {
		s.recorder.Record(ctx, tc, "user", user.ID.String(), audit.ActionCreate, audit.Changes{
			"email": {New: user.Email},
			"role":  {New: user.Role},
		})
	}
	return user, nil
}

// CreatePlatformUser provisions a platform operator.
func (s *Service) CreatePlatformUser(ctx context.Context, tc *tenant.Context, email, password string, role domain.Role) (*auth.User, error) {
	if err := authz.RequirePlatform(tc); err != nil {
		return nil, err
	}

	user, err := auth.NewPlatformUser(email, password, role)
	if err != nil {
		return nil, err
	}
	user.MustChangePassword = true

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already in use")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating user")
	}

	s.metrics.RecordUserCreated()
	if s.recorder != nil {
		s.recorder.Record(ctx, tc, "user", user.ID.String(), audit.ActionCreate, audit.Changes{
			"email": {New: user.Email},
			"role":  {New: user.Role},
		})
	}
	return user, nil
}
