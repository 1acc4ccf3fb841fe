package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
	"bookstore/internal/storage"
)

var (
	// ErrBookNotFound is returned when a book id matches nothing.
	ErrBookNotFound = apperrors.WithMessage(apperrors.ErrNotFound, "Book not found.")
	// ErrDuplicateISBN is returned when an admin already has a book with the ISBN.
	ErrDuplicateISBN = apperrors.WithMessage(apperrors.ErrConflict, "ISBN must be unique for this admin.")
)

// BookInput carries the editable fields of a book.
type BookInput struct {
	Name      string
	ISBN      string
	Price     decimal.Decimal
	WrittenBy string
	Quantity  int
	Icon      *string
}

// IconUpload is an icon file received with a new book.
type IconUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// BookService manages the inventory.
type BookService interface {
	AddBook(ctx context.Context, ownerID uuid.UUID, in BookInput, icon *IconUpload) (*model.Book, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error)
	ListCatalogue(ctx context.Context) ([]model.BookListing, error)
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	UpdateBook(ctx context.Context, id uuid.UUID, in BookInput) (*model.Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error
}

type bookService struct {
	bookRepo repository.BookRepository
	icons    storage.IconStore
	now      func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(bookRepo repository.BookRepository, icons storage.IconStore) BookService {
	return &bookService{
		bookRepo: bookRepo,
		icons:    icons,
		now:      time.Now,
	}
}

func validateBookInput(in *BookInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ISBN = strings.TrimSpace(in.ISBN)
	in.WrittenBy = strings.TrimSpace(in.WrittenBy)
	if in.Name == "" || in.ISBN == "" || in.WrittenBy == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "All fields except icon are required.")
	}
	if in.Price.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Price must not be negative.")
	}
	if in.Quantity < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must not be negative.")
	}
	return nil
}

// AddBook stores the icon, if any, and creates the book owned by ownerID.
func (s *bookService) AddBook(ctx context.Context, ownerID uuid.UUID, in BookInput, icon *IconUpload) (*model.Book, error) {
	if err := validateBookInput(&in); err != nil {
		return nil, err
	}

	if _, err := s.bookRepo.FindByOwnerAndISBN(ctx, ownerID, in.ISBN); err == nil {
		return nil, ErrDuplicateISBN
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check isbn: %w", err)
	}

	var iconKey *string
	if icon != nil {
		key := storage.IconKey(s.now(), icon.Filename)
		if err := s.icons.Put(ctx, key, icon.Content, icon.Size, icon.ContentType); err != nil {
			return nil, fmt.Errorf("store icon: %w", err)
		}
		iconKey = &key
	}

	book := &model.Book{
		Name:      in.Name,
		ISBN:      in.ISBN,
		Price:     in.Price,
		WrittenBy: in.WrittenBy,
		Quantity:  in.Quantity,
		Icon:      iconKey,
		AddedBy:   ownerID,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		s.discardIcon(ctx, iconKey)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

func (s *bookService) discardIcon(ctx context.Context, key *string) {
	if key == nil {
		return
	}
	if err := s.icons.Delete(ctx, *key); err != nil {
		slog.WarnContext(ctx, "discard icon", "key", *key, "error", err)
	}
}

// ListOwned returns the books added by ownerID.
func (s *bookService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]model.Book, error) {
	books, err := s.bookRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListCatalogue returns every book without its owner.
func (s *bookService) ListCatalogue(ctx context.Context) ([]model.BookListing, error) {
	books, err := s.bookRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	listings := make([]model.BookListing, 0, len(books))
	for _, b := range books {
		listings = append(listings, b.Listing())
	}
	return listings, nil
}

func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// UpdateBook overwrites every editable field. Ownership is not checked.
func (s *bookService) UpdateBook(ctx context.Context, id uuid.UUID, in BookInput) (*model.Book, error) {
	if err := validateBookInput(&in); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	book.Name = in.Name
	book.ISBN = in.ISBN
	book.Price = in.Price
	book.WrittenBy = in.WrittenBy
	book.Quantity = in.Quantity
	book.Icon = in.Icon

	if err := s.bookRepo.Update(ctx, book); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateISBN
		}
		return nil, fmt.Errorf("update book: %w", err)
	}
	return book, nil
}

// DeleteBook removes a book. Ownership is not checked.
func (s *bookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.bookRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}

// UpdateQuantity overwrites the stock count of a book.
func (s *bookService) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	if quantity < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Quantity must not be negative.")
	}
	if _, err := s.GetBook(ctx, id); err != nil {
		return err
	}
	if err := s.bookRepo.SetQuantity(ctx, id, quantity); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	return nil
}
