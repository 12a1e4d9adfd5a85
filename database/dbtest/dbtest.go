// Package dbtest opens throwaway SQLite databases with the production schema
// for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Mouss911/webnet-back/database"
	"github.com/Mouss911/webnet-back/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// New returns a migrated in-memory database private to t.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection keeps the in-memory database alive and serialises access.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func User(t testing.TB, db *gorm.DB, role models.Role) models.User {
	t.Helper()
	u := models.User{
		ID:           uuid.NewString(),
		Name:         "Test " + string(role),
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func Category(t testing.TB, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Description: name + " things"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func Product(t testing.TB, db *gorm.DB, categoryID uint, name, price string) models.Product {
	t.Helper()
	p := models.Product{
		Name:        name,
		Description: name,
		Price:       decimal.RequireFromString(price),
		Stock:       10,
		CategoryID:  categoryID,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}
