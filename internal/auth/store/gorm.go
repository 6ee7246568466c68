package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"erpcore/internal/auth"
	"erpcore/pkg/domain"
	"erpcore/pkg/platform/sentinel"
)

// Gorm is the postgres-backed user store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Create(ctx context.Context, user *auth.User) error {
	err := s.db.WithContext(ctx).Create(user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Gorm) FindByID(ctx context.Context, id domain.UserID) (*auth.User, error) {
	var user auth.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Gorm) FindByEmail(ctx context.Context, orgID *domain.OrgID, email string) (*auth.User, error) {
	q := s.db.WithContext(ctx).Where("email = ?", auth.NormalizeEmail(email))
	if orgID != nil {
		q = q.Where("org_id = ?", orgID.String())
	} else {
		q = q.Where("org_id IS NULL")
	}

	var user auth.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Gorm) Update(ctx context.Context, user *auth.User) error {
	// Email and owning organization are fixed at creation.
	res := s.db.WithContext(ctx).Model(&auth.User{}).
		Where("id = ?", user.ID.String()).
		Select("password_hash", "role", "active", "must_change_password", "updated_at").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
