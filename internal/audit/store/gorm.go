package store

import (
	"context"

	"gorm.io/gorm"

	"erpcore/internal/audit"
	"erpcore/pkg/domain"
)

// Gorm is the postgres-backed audit store. Append-only: no update or delete
// methods exist on purpose.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Append(ctx context.Context, entry audit.Entry) error {
	return s.db.WithContext(ctx).Create(&entry).Error
}

func (s *Gorm) ListByOrg(ctx context.Context, orgID domain.OrgID, limit int) ([]audit.Entry, error) {
	return s.listScope(ctx, orgID.String(), limit)
}

func (s *Gorm) ListPlatform(ctx context.Context, limit int) ([]audit.Entry, error) {
	return s.listScope(ctx, audit.PlatformScope, limit)
}

func (s *Gorm) listScope(ctx context.Context, scope string, limit int) ([]audit.Entry, error) {
	q := s.db.WithContext(ctx).Where("org_scope = ?", scope).Order("at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []audit.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
