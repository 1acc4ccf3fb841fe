package repository

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookstore/internal/db"
	"bookstore/internal/model"
	"bookstore/internal/testutil"
)

func TestBookRepository_OwnerScopedISBN(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	adminA := testutil.SetupUser(t, db, "a@example.com", "pw", model.RoleAdmin)
	adminB := testutil.SetupUser(t, db, "b@example.com", "pw", model.RoleAdmin)

	testutil.SetupBook(t, db, adminA.ID, "111", 10, 5)
	testutil.SetupBook(t, db, adminB.ID, "111", 12, 1)

	dup := &model.Book{Name: "Again", ISBN: "111", WrittenBy: "x", AddedBy: adminA.ID}
	assert.ErrorIs(t, repo.Create(ctx, dup), gorm.ErrDuplicatedKey)

	found, err := repo.FindByOwnerAndISBN(ctx, adminB.ID, "111")
	require.NoError(t, err)
	assert.Equal(t, adminB.ID, found.AddedBy)
}

func TestBookRepository_Listings(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	adminA := testutil.SetupUser(t, db, "a@example.com", "pw", model.RoleAdmin)
	adminB := testutil.SetupUser(t, db, "b@example.com", "pw", model.RoleAdmin)
	a1 := testutil.SetupBook(t, db, adminA.ID, "1", 10, 5)
	a2 := testutil.SetupBook(t, db, adminA.ID, "2", 10, 5)
	testutil.SetupBook(t, db, adminB.ID, "3", 10, 5)

	owned, err := repo.ListByOwner(ctx, adminA.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	for _, b := range owned {
		assert.Equal(t, adminA.ID, b.AddedBy)
	}

	ids, err := repo.ListIDsByOwner(ctx, adminA.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a1.ID, a2.ID}, ids)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBookRepository_DecrementStock(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "a@example.com", "pw", model.RoleAdmin)
	book := testutil.SetupBook(t, db, admin.ID, "111", 10, 5)

	ok, err := repo.DecrementStock(ctx, book.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, testutil.BookQuantity(t, db, book.ID))

	ok, err = repo.DecrementStock(ctx, book.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, testutil.BookQuantity(t, db, book.ID))

	ok, err = repo.DecrementStock(ctx, book.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, testutil.BookQuantity(t, db, book.ID))

	ok, err = repo.DecrementStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Unlike the shared in-memory fixture, a file database with several pooled
// connections lets the UPDATE statements genuinely contend.
func TestBookRepository_DecrementStockConcurrent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "stock.db") + "?_busy_timeout=10000&_journal_mode=WAL"
	gormDB, err := db.NewSQLite(dsn)
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gormDB))

	repo := NewBookRepository(gormDB)
	admin := testutil.SetupUser(t, gormDB, "a@example.com", "pw", model.RoleAdmin)
	const stock, callers = 10, 40
	book := testutil.SetupBook(t, gormDB, admin.ID, "111", 10, stock)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		taken    int
		refused  int
		failures []error
	)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := repo.DecrementStock(context.Background(), book.ID, 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures = append(failures, err)
			case ok:
				taken++
			default:
				refused++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, failures)
	assert.Equal(t, stock, taken)
	assert.Equal(t, callers-stock, refused)
	assert.Equal(t, 0, testutil.BookQuantity(t, gormDB, book.ID))
}

func TestBookRepository_SetQuantityAndDelete(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "a@example.com", "pw", model.RoleAdmin)
	book := testutil.SetupBook(t, db, admin.ID, "111", 10, 5)

	require.NoError(t, repo.SetQuantity(ctx, book.ID, 42))
	assert.Equal(t, 42, testutil.BookQuantity(t, db, book.ID))

	require.NoError(t, repo.Delete(ctx, book.ID))
	_, err := repo.FindByID(ctx, book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, book.ID), gorm.ErrRecordNotFound)
}

func TestBookRepository_QuantityCheckConstraint(t *testing.T) {
	db := testutil.InitMemoryDB(t)
	repo := NewBookRepository(db)
	ctx := context.Background()

	admin := testutil.SetupUser(t, db, "a@example.com", "pw", model.RoleAdmin)
	book := testutil.SetupBook(t, db, admin.ID, "111", 10, 5)

	assert.Error(t, repo.SetQuantity(ctx, book.ID, -1))
	assert.Equal(t, 5, testutil.BookQuantity(t, db, book.ID))
}
