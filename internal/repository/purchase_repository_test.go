package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bookstore/internal/model"
	"bookstore/internal/testutil"
)

func samplePickup() datatypes.JSONType[model.PickupDetails] {
	return datatypes.NewJSONType(model.PickupDetails{
		Name:          "Jane",
		Phone:         "555-0100",
		Address:       "1 Main St",
		SelectedState: "CA",
		SelectedCity:  "SF",
		PostalCode:    "94105",
	})
}

func TestPurchaseRepository_CreateAndFind(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "admin@example.com", "pw", model.RoleAdmin)
	user := testutil.SetupUser(t, db, "user@example.com", "pw", model.RoleUser)
	book := testutil.SetupBook(t, db, admin.ID, "111", 10, 5)

	p := &model.Purchase{
		UserID:        user.ID,
		BookID:        book.ID,
		Quantity:      2,
		PurchaseDate:  time.Now(),
		PickupDetails: samplePickup(),
		TotalAmount:   decimal.NewFromInt(20),
	}
	require.NoError(t, repo.Create(ctx, p))

	found, err := repo.FindByUserAndBookForUpdate(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)
	assert.Equal(t, "94105", found.PickupDetails.Data().PostalCode)

	dup := &model.Purchase{UserID: user.ID, BookID: book.ID, Quantity: 1, PurchaseDate: time.Now(), PickupDetails: samplePickup(), TotalAmount: decimal.NewFromInt(10)}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	_, err = repo.FindByUserAndBookForUpdate(ctx, admin.ID, book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPurchaseRepository_ListPreloads(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewPurchaseRepository(db)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "admin@example.com", "pw", model.RoleAdmin)
	user := testutil.SetupUser(t, db, "user@example.com", "pw", model.RoleUser)
	b1 := testutil.SetupBook(t, db, admin.ID, "1", 10, 5)
	b2 := testutil.SetupBook(t, db, admin.ID, "2", 7, 5)

	for _, b := range []model.Book{b1, b2} {
		require.NoError(t, repo.Create(ctx, &model.Purchase{
			UserID: user.ID, BookID: b.ID, Quantity: 1, PurchaseDate: time.Now(),
			PickupDetails: samplePickup(), TotalAmount: b.Price,
		}))
	}

	mine, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "user@example.com", mine[0].User.Email)
	assert.NotEmpty(t, mine[0].Book.Name)

	some, err := repo.ListByBooks(ctx, []uuid.UUID{b2.ID})
	require.NoError(t, err)
	require.Len(t, some, 1)
	assert.True(t, decimal.NewFromInt(7).Equal(some[0].Book.Price))

	none, err := repo.ListByBooks(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTransactor_RollsBack(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "admin@example.com", "pw", model.RoleAdmin)
	book := testutil.SetupBook(t, db, admin.ID, "111", 10, 5)

	boom := errors.New("boom")
	err := NewTransactor(db).WithTransaction(ctx, func(ctx context.Context, repos TxRepositories) error {
		ok, err := repos.Books.DecrementStock(ctx, book.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, testutil.BookQuantity(t, db, book.ID))
}
