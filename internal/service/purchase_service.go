package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
)

var (
	// ErrPurchaseUserNotFound is returned when the purchasing user does not exist.
	ErrPurchaseUserNotFound = apperrors.WithMessage(apperrors.ErrNotFound, "User not found.")
	// ErrInsufficientStock is returned when the book holds fewer copies than requested.
	ErrInsufficientStock = apperrors.WithMessage(apperrors.ErrInsufficientStock, "Insufficient stock.")
)

// PurchaseInput is a request to buy copies of a book for pickup.
type PurchaseInput struct {
	UserID   uuid.UUID
	BookID   uuid.UUID
	Quantity int
	Pickup   *model.PickupDetails
}

// PurchaseSummary describes the cumulative purchase after a successful buy.
type PurchaseSummary struct {
	BookID      uuid.UUID       `json:"bookId"`
	BookName    string          `json:"bookName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// PurchaseUser is the purchaser as shown in purchase listings.
type PurchaseUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
}

// PurchaseBook is the purchased book as shown in purchase listings.
type PurchaseBook struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PurchaseView is one (user, book) line of a purchase listing.
type PurchaseView struct {
	ID            uuid.UUID           `json:"_id"`
	Quantity      int                 `json:"quantity"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	BookName      string              `json:"bookName"`
	Price         decimal.Decimal     `json:"price"`
	PurchaseDate  time.Time           `json:"purchaseDate"`
	PickupDetails model.PickupDetails `json:"pickupDetails"`
	User          PurchaseUser        `json:"user"`
	Book          PurchaseBook        `json:"book"`
}

// PurchaseService records purchases and reconciles stock.
type PurchaseService interface {
	AddPurchase(ctx context.Context, in PurchaseInput) (*PurchaseSummary, error)
	ListPurchases(ctx context.Context, caller *model.User) ([]PurchaseView, error)
}

type purchaseService struct {
	tx           repository.Transactor
	bookRepo     repository.BookRepository
	purchaseRepo repository.PurchaseRepository
	now          func() time.Time
}

// NewPurchaseService creates a new purchase service.
func NewPurchaseService(tx repository.Transactor, bookRepo repository.BookRepository, purchaseRepo repository.PurchaseRepository) PurchaseService {
	return &purchaseService{
		tx:           tx,
		bookRepo:     bookRepo,
		purchaseRepo: purchaseRepo,
		now:          time.Now,
	}
}

func validatePurchaseInput(in PurchaseInput) error {
	if in.UserID == uuid.Nil || in.BookID == uuid.Nil || in.Quantity == 0 || in.Pickup == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "All fields are required in the request body.")
	}
	if in.Quantity < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must be positive.")
	}
	if !in.Pickup.Complete() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Pickup details are incomplete.")
	}
	return nil
}

// AddPurchase decrements stock and merges the quantity into the single
// (user, book) purchase, all in one transaction. The book row is locked
// first, so concurrent buyers of the same book are serialized and the
// conditional decrement never lets the stock drop below zero.
func (s *purchaseService) AddPurchase(ctx context.Context, in PurchaseInput) (*PurchaseSummary, error) {
	if err := validatePurchaseInput(in); err != nil {
		return nil, err
	}

	var summary *PurchaseSummary
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if _, err := repos.Users.FindByID(ctx, in.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseUserNotFound
			}
			return fmt.Errorf("load user: %w", err)
		}

		book, err := repos.Books.FindByIDForUpdate(ctx, in.BookID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookNotFound
			}
			return fmt.Errorf("lock book: %w", err)
		}

		ok, err := repos.Books.DecrementStock(ctx, book.ID, in.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			return ErrInsufficientStock
		}

		purchase, err := s.mergePurchase(ctx, repos.Purchases, book, in)
		if err != nil {
			return err
		}

		summary = &PurchaseSummary{
			BookID:      book.ID,
			BookName:    book.Name,
			Quantity:    purchase.Quantity,
			Price:       book.Price,
			TotalAmount: purchase.TotalAmount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *purchaseService) mergePurchase(ctx context.Context, repo repository.PurchaseRepository, book *model.Book, in PurchaseInput) (*model.Purchase, error) {
	pickup := datatypes.NewJSONType(*in.Pickup)

	existing, err := repo.FindByUserAndBookForUpdate(ctx, in.UserID, book.ID)
	switch {
	case err == nil:
		existing.Quantity += in.Quantity
		existing.PickupDetails = pickup
		existing.TotalAmount = book.Price.Mul(decimal.NewFromInt(int64(existing.Quantity)))
		if err := repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update purchase: %w", err)
		}
		return existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		purchase := &model.Purchase{
			UserID:        in.UserID,
			BookID:        book.ID,
			Quantity:      in.Quantity,
			PurchaseDate:  s.now(),
			PickupDetails: pickup,
			TotalAmount:   book.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		}
		if err := repo.Create(ctx, purchase); err != nil {
			return nil, fmt.Errorf("create purchase: %w", err)
		}
		return purchase, nil
	default:
		return nil, fmt.Errorf("load purchase: %w", err)
	}
}

// ListPurchases returns what caller may see: an admin sees purchases of the
// books they added, anyone else sees their own purchases.
func (s *purchaseService) ListPurchases(ctx context.Context, caller *model.User) ([]PurchaseView, error) {
	var (
		purchases []model.Purchase
		err       error
	)
	if caller.Role.IsAdmin() {
		var bookIDs []uuid.UUID
		bookIDs, err = s.bookRepo.ListIDsByOwner(ctx, caller.ID)
		if err != nil {
			return nil, fmt.Errorf("list owned books: %w", err)
		}
		purchases, err = s.purchaseRepo.ListByBooks(ctx, bookIDs)
	} else {
		purchases, err = s.purchaseRepo.ListByUser(ctx, caller.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return AggregatePurchases(purchases), nil
}

// AggregatePurchases folds purchases into one line per (user, book), summing
// quantity and total and keeping the first date and pickup details seen.
// Purchases whose user or book no longer exists are skipped.
func AggregatePurchases(purchases []model.Purchase) []PurchaseView {
	type key struct{ user, book uuid.UUID }

	views := make([]PurchaseView, 0, len(purchases))
	index := make(map[key]int, len(purchases))
	for _, p := range purchases {
		if p.User.ID == uuid.Nil || p.Book.ID == uuid.Nil {
			continue
		}
		k := key{user: p.User.ID, book: p.Book.ID}
		i, ok := index[k]
		if !ok {
			i = len(views)
			index[k] = i
			views = append(views, PurchaseView{
				ID:            p.Book.ID,
				TotalAmount:   decimal.Zero,
				BookName:      p.Book.Name,
				Price:         p.Book.Price,
				PurchaseDate:  p.PurchaseDate,
				PickupDetails: p.PickupDetails.Data(),
				User: PurchaseUser{
					ID:       p.User.ID,
					Username: p.User.Username,
					Email:    p.User.Email,
					Name:     p.User.FullName(),
				},
				Book: PurchaseBook{
					ID:    p.Book.ID,
					Name:  p.Book.Name,
					Price: p.Book.Price,
				},
			})
		}
		views[i].Quantity += p.Quantity
		views[i].TotalAmount = views[i].TotalAmount.Add(p.TotalAmount)
	}
	return views
}
