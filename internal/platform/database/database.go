// Package database opens the postgres connection and keeps the schema
// current.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"erpcore/internal/audit"
	"erpcore/internal/auth"
	"erpcore/internal/tenant/models"
	"erpcore/internal/vendors"
)

// Open connects to postgres. TranslateError turns driver duplicate-key
// errors into gorm.ErrDuplicatedKey so stores can map them to sentinels.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the schema for every persisted type.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Organization{},
		&auth.User{},
		&vendor.Vendor{},
		&audit.Entry{},
	)
}
