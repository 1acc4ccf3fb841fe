package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookstore/internal/model"
)

// PurchaseRepository defines purchase persistence operations.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	Update(ctx context.Context, purchase *model.Purchase) error
	FindByUserAndBookForUpdate(ctx context.Context, userID, bookID uuid.UUID) (*model.Purchase, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Purchase, error)
	ListByBooks(ctx context.Context, bookIDs []uuid.UUID) ([]model.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository.
func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

// Create creates a new purchase record.
func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(purchase).Error
}

// Update updates an existing purchase record.
func (r *purchaseRepository) Update(ctx context.Context, purchase *model.Purchase) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(purchase).Error
}

// FindByUserAndBookForUpdate finds the (user, book) purchase with a row-level lock.
func (r *purchaseRepository) FindByUserAndBookForUpdate(ctx context.Context, userID, bookID uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND book_id = ?", userID, bookID).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListByUser lists a user's purchases with user and book preloaded.
func (r *purchaseRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Purchase, error) {
	var purchases []model.Purchase
	if err := r.preloaded(ctx).Where("user_id = ?", userID).Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

// ListByBooks lists purchases of any of the given books with user and book preloaded.
func (r *purchaseRepository) ListByBooks(ctx context.Context, bookIDs []uuid.UUID) ([]model.Purchase, error) {
	if len(bookIDs) == 0 {
		return []model.Purchase{}, nil
	}
	var purchases []model.Purchase
	if err := r.preloaded(ctx).Where("book_id IN ?", bookIDs).Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *purchaseRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "email", "first_name", "last_name")
		}).
		Preload("Book", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "price")
		}).
		Order("purchase_date")
}
