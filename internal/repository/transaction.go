package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRepositories are repositories bound to a single database transaction.
type TxRepositories struct {
	Users     UserRepository
	Books     BookRepository
	Purchases PurchaseRepository
}

// Transactor runs a unit of work spanning several repositories.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error
}

type transactor struct {
	db *gorm.DB
}

// NewTransactor creates a GORM-backed Transactor.
func NewTransactor(db *gorm.DB) Transactor {
	return &transactor{db: db}
}

// WithTransaction executes fn within a database transaction. Returning an
// error from fn rolls everything back.
func (t *transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context, repos TxRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, TxRepositories{
			Users:     &userRepository{db: tx},
			Books:     &bookRepository{db: tx},
			Purchases: &purchaseRepository{db: tx},
		})
	})
}
