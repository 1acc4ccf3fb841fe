package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// Prices and totals go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Book is an inventory record owned by the admin who added it.
type Book struct {
	ID        uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	ISBN      string          `json:"isbn" gorm:"size:64;not null;uniqueIndex:idx_books_owner_isbn,priority:2"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(20,2);not null"`
	WrittenBy string          `json:"written_by" gorm:"size:255;not null"`
	Quantity  int             `json:"quantity" gorm:"not null;check:chk_books_quantity,quantity >= 0"`
	Icon      *string         `json:"icon"`
	AddedBy   uuid.UUID       `json:"added_by" gorm:"type:char(36);not null;uniqueIndex:idx_books_owner_isbn,priority:1"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookListing is the public projection of a book. It deliberately has no owner field.
type BookListing struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	ISBN     string          `json:"isbn"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Icon     *string         `json:"icon"`
}

// Listing projects b for the public catalogue.
func (b Book) Listing() BookListing {
	return BookListing{
		ID:       b.ID,
		Name:     b.Name,
		ISBN:     b.ISBN,
		Quantity: b.Quantity,
		Price:    b.Price,
		Icon:     b.Icon,
	}
}
