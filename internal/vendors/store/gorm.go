package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erpcore/internal/scope"
	"erpcore/internal/tenant"
	"erpcore/internal/vendors"
	"erpcore/pkg/platform/sentinel"
)

// Gorm is the postgres-backed vendor store.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Create(ctx context.Context, v *vendor.Vendor) error {
	err := s.db.WithContext(ctx).Create(v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return sentinel.ErrConflict
		}
		return err
	}
	return nil
}

// FindByID loads by primary key without tenant filtering; the service
// verifies ownership on the loaded row.
func (s *Gorm) FindByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	var v vendor.Vendor
	err := s.db.WithContext(ctx).First(&v, "id = ?", id.String()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// List returns only rows the context may see; the tenant filter is part of
// the query, so foreign rows never leave the database.
func (s *Gorm) List(ctx context.Context, tc *tenant.Context) ([]*vendor.Vendor, error) {
	var vendors []*vendor.Vendor
	err := s.db.WithContext(ctx).
		Scopes(scope.ForContext(tc)).
		Order("created_at").
		Find(&vendors).Error
	if err != nil {
		return nil, err
	}
	return vendors, nil
}

func (s *Gorm) Update(ctx context.Context, v *vendor.Vendor) error {
	// The owner column is omitted so a vendor can never change hands.
	res := s.db.WithContext(ctx).Model(&vendor.Vendor{}).
		Where("id = ?", v.ID.String()).
		Select("name", "email", "phone", "tax_id", "updated_at").
		Updates(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Gorm) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&vendor.Vendor{}, "id = ?", id.String())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
