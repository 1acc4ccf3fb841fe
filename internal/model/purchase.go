package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PickupDetails is where and by whom a purchase is collected.
type PickupDetails struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	SelectedState string `json:"selectedState"`
	SelectedCity  string `json:"selectedCity"`
	PostalCode    string `json:"postalCode"`
}

// Complete reports whether every pickup field is filled in.
func (p PickupDetails) Complete() bool {
	for _, v := range []string{p.Name, p.Phone, p.Address, p.SelectedState, p.SelectedCity, p.PostalCode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Purchase is the cumulative record of one user buying one book.
// There is at most one row per (user, book) pair.
type Purchase struct {
	ID            uuid.UUID                         `json:"_id" gorm:"type:char(36);primaryKey"`
	UserID        uuid.UUID                         `json:"userId" gorm:"type:char(36);not null;uniqueIndex:idx_purchases_user_book,priority:1"`
	BookID        uuid.UUID                         `json:"bookId" gorm:"type:char(36);not null;uniqueIndex:idx_purchases_user_book,priority:2;index"`
	Quantity      int                               `json:"quantity" gorm:"not null"`
	PurchaseDate  time.Time                         `json:"purchaseDate" gorm:"not null"`
	PickupDetails datatypes.JSONType[PickupDetails] `json:"pickupDetails"`
	TotalAmount   decimal.Decimal                   `json:"totalAmount" gorm:"type:decimal(20,2);not null"`
	CreatedAt     time.Time                         `json:"createdAt"`
	UpdatedAt     time.Time                         `json:"updatedAt"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
	Book Book `json:"-" gorm:"foreignKey:BookID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
