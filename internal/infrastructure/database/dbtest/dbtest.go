// Package dbtest opens throwaway sqlite databases with the service schema for
// tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"issue-tracker/internal/domain/account"
	"issue-tracker/internal/infrastructure/database/postgres"
	"issue-tracker/internal/infrastructure/database/postgres/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seedRoles = []string{
	account.RoleAdmin,
	account.RoleProjectManager,
	account.RoleDeveloper,
	account.RoleViewer,
}

// New returns an in-memory database with every table migrated and the
// default roles seeded.
func New(t *testing.T) *postgres.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// sqlite allows a single writer; one connection keeps concurrent tests
	// from failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	for _, name := range seedRoles {
		if err := db.Create(&models.RoleModel{Name: name, CreatedAt: time.Now().UTC()}).Error; err != nil {
			t.Fatalf("seed role %s: %v", name, err)
		}
	}

	t.Cleanup(func() { _ = sqlDB.Close() })

	return postgres.Wrap(db)
}

// RoleID returns the id of a seeded role.
func RoleID(t *testing.T, db *postgres.DB, name string) uint {
	t.Helper()

	var role models.RoleModel
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		t.Fatalf("find role %s: %v", name, err)
	}
	return role.ID
}
