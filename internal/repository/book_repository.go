package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookstore/internal/model"
)

// BookRepository defines book persistence operations.
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindByOwnerAndISBN(ctx context.Context, ownerID uuid.UUID, isbn string) (*model.Book, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error)
	ListAll(ctx context.Context) ([]model.Book, error)
	ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// Create creates a new book.
func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// Update saves every column of an existing book.
func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete removes a book, returning gorm.ErrRecordNotFound when nothing matched.
func (r *bookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Book{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a book by ID.
func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByIDForUpdate finds a book by ID with a row-level lock. Only meaningful inside a transaction.
func (r *bookRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// FindByOwnerAndISBN finds the book an admin registered under isbn.
func (r *bookRepository) FindByOwnerAndISBN(ctx context.Context, ownerID uuid.UUID, isbn string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("added_by = ? AND isbn = ?", ownerID, isbn).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ListByOwner lists the books added by one admin.
func (r *bookRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).Where("added_by = ?", ownerID).Order("created_at").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// ListAll lists every book in the system.
func (r *bookRepository) ListAll(ctx context.Context) ([]model.Book, error) {
	var books []model.Book
	if err := r.db.WithContext(ctx).Order("created_at").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// ListIDsByOwner returns only the ids of the books added by one admin.
func (r *bookRepository) ListIDsByOwner(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Book{}).Where("added_by = ?", ownerID).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SetQuantity overwrites the stock count.
func (r *bookRepository) SetQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Model(&model.Book{}).Where("id = ?", id).Update("quantity", quantity).Error
}

// DecrementStock removes quantity copies in a single conditional UPDATE.
// It reports false, without error, when the book does not hold enough stock,
// so the count can never go below zero regardless of concurrent callers.
func (r *bookRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Book{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Update("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
