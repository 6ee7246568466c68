package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"erpcore/internal/tenant/models"
	"erpcore/pkg/domain"
	"erpcore/pkg/platform/sentinel"
)

// Gorm is the postgres-backed organization store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Create(ctx context.Context, org *models.Organization) error {
	err := s.db.WithContext(ctx).Create(org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

func (s *Gorm) FindByID(ctx context.Context, id domain.OrgID) (*models.Organization, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).First(&org, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Gorm) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).First(&org, "slug = ?", strings.ToLower(slug)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *Gorm) Update(ctx context.Context, org *models.Organization) error {
	// Slug immutability is enforced by omitting the column from updates.
	res := s.db.WithContext(ctx).Model(&models.Organization{}).
		Where("id = ?", org.ID.String()).
		Select("name", "status", "plan", "max_users", "storage_limit_gb", "updated_at").
		Updates(org)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Gorm) List(ctx context.Context) ([]*models.Organization, error) {
	var orgs []*models.Organization
	if err := s.db.WithContext(ctx).Order("created_at").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}
