// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	"bookstore/internal/db"
	"bookstore/internal/model"
)

// InitMemoryDB creates a migrated in-memory SQLite database unique to the test.
func InitMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := db.NewSQLite(dbName)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("failed to migrate in-memory database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

// SetupUser creates a local account with the given email, password and role.
func SetupUser(t *testing.T, gormDB *gorm.DB, email, password string, role model.Role) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := model.User{
		Username:     email,
		Email:        email,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: hash,
		Role:         role,
	}
	if err := gormDB.Create(&user).Error; err != nil {
		t.Fatalf("failed to prepare user: %v", err)
	}
	return user
}

// SetupBook creates a book owned by ownerID.
func SetupBook(t *testing.T, gormDB *gorm.DB, ownerID uuid.UUID, isbn string, price int64, quantity int) model.Book {
	t.Helper()
	book := model.Book{
		Name:      "Book " + isbn,
		ISBN:      isbn,
		Price:     decimal.NewFromInt(price),
		WrittenBy: "Author",
		Quantity:  quantity,
		AddedBy:   ownerID,
	}
	if err := gormDB.Create(&book).Error; err != nil {
		t.Fatalf("failed to prepare book: %v", err)
	}
	return book
}

// BookQuantity reads the current stock of a book straight from the table.
func BookQuantity(t *testing.T, gormDB *gorm.DB, bookID uuid.UUID) int {
	t.Helper()
	var book model.Book
	if err := gormDB.Where("id = ?", bookID).First(&book).Error; err != nil {
		t.Fatalf("failed to load book: %v", err)
	}
	return book.Quantity
}
