package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"bookstore/internal/middleware"
	"bookstore/internal/model"
	"bookstore/internal/service"
)

const allFieldsRequired = "All fields except icon are required."

var errNotWhole = errors.New("not a whole number")

// BookHandler handles inventory endpoints.
type BookHandler struct {
	bookService service.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// AddBookResponse represents the response to a new book.
type AddBookResponse struct {
	Message string      `json:"message"`
	NewBook *model.Book `json:"newbook"`
}

// BooksResponse lists the caller's books.
type BooksResponse struct {
	Message string       `json:"message"`
	Books   []model.Book `json:"books"`
}

// CatalogueResponse lists every book without its owner.
type CatalogueResponse struct {
	Message string              `json:"message"`
	Books   []model.BookListing `json:"books"`
}

// UpdateBookRequest represents a full book update.
type UpdateBookRequest struct {
	ID        string           `json:"_id"`
	Name      string           `json:"name"`
	ISBN      string           `json:"isbn"`
	Price     *decimal.Decimal `json:"price" swaggertype:"number"`
	WrittenBy string           `json:"written_by"`
	Quantity  *int             `json:"quantity"`
	Icon      *string          `json:"icon"`
}

// UpdateBookResponse represents the response to an update.
type UpdateBookResponse struct {
	Message     string      `json:"message"`
	UpdatedBook *model.Book `json:"updatedBook"`
}

// DeleteBookRequest names the book to delete.
type DeleteBookRequest struct {
	ID string `json:"_id" validate:"required"`
}

// UpdateQuantityRequest sets the stock count of a book.
type UpdateQuantityRequest struct {
	BookID   string `json:"bookId"`
	Quantity *int   `json:"quantity"`
}

// AddBook godoc
// @Summary Add a book to the caller's inventory
// @Tags books
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Title"
// @Param isbn formData string true "ISBN"
// @Param price formData number true "Unit price"
// @Param written_by formData string true "Author"
// @Param quantity formData integer true "Copies in stock"
// @Param icon formData file false "Cover image"
// @Success 201 {object} AddBookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /addBook [post]
func (h *BookHandler) AddBook(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	in := service.BookInput{
		Name:      c.FormValue("name"),
		ISBN:      c.FormValue("isbn"),
		WrittenBy: c.FormValue("written_by"),
	}
	price, quantity := strings.TrimSpace(c.FormValue("price")), strings.TrimSpace(c.FormValue("quantity"))
	if price == "" || quantity == "" {
		return badRequest(allFieldsRequired)
	}
	var err error
	if in.Price, err = decimal.NewFromString(price); err != nil {
		return badRequest("Price must be a number.")
	}
	if in.Quantity, err = parseQuantity(quantity); err != nil {
		return badRequest("Quantity must be a whole number.")
	}

	var icon *service.IconUpload
	file, err := c.FormFile("icon")
	switch {
	case err == nil:
		src, err := file.Open()
		if err != nil {
			return respondError(c, err)
		}
		defer src.Close()
		icon = &service.IconUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get(echo.HeaderContentType),
			Size:        file.Size,
			Content:     src,
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		return badRequest("Invalid icon upload.")
	}

	book, err := h.bookService.AddBook(c.Request().Context(), caller.ID, in, icon)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, AddBookResponse{
		Message: "Book added successfully.",
		NewBook: book,
	})
}

// GetBooks godoc
// @Summary List the books added by the caller
// @Tags books
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BooksResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /getBooks [get]
func (h *BookHandler) GetBooks(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	books, err := h.bookService.ListOwned(c.Request().Context(), caller.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, BooksResponse{
		Message: "Books retrieved successfully.",
		Books:   books,
	})
}

// GetAllBooks godoc
// @Summary List the whole catalogue
// @Tags books
// @Produce json
// @Success 200 {object} CatalogueResponse
// @Failure 404 {object} MessageResponse
// @Router /getAllBooks [get]
func (h *BookHandler) GetAllBooks(c echo.Context) error {
	books, err := h.bookService.ListCatalogue(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if len(books) == 0 {
		return c.JSON(http.StatusNotFound, MessageResponse{Message: "No books found."})
	}
	return c.JSON(http.StatusOK, CatalogueResponse{
		Message: "All books retrieved successfully.",
		Books:   books,
	})
}

// GetBookByID godoc
// @Summary Get a book
// @Tags books
// @Produce json
// @Param _id path string true "Book ID"
// @Success 200 {object} model.Book
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /getBookById/{_id} [get]
func (h *BookHandler) GetBookByID(c echo.Context) error {
	id, ok := parseID(c.Param("_id"))
	if !ok {
		return badRequest("Invalid book ID format.")
	}

	book, err := h.bookService.GetBook(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, book)
}

// UpdateBook godoc
// @Summary Replace the fields of a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body UpdateBookRequest true "Book"
// @Success 200 {object} UpdateBookResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /updateBook [put]
func (h *BookHandler) UpdateBook(c echo.Context) error {
	var req UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if req.ID == "" || req.Price == nil || req.Quantity == nil {
		return badRequest(allFieldsRequired)
	}
	id, ok := parseID(req.ID)
	if !ok {
		return badRequest("Invalid book ID format.")
	}

	book, err := h.bookService.UpdateBook(c.Request().Context(), id, service.BookInput{
		Name:      req.Name,
		ISBN:      req.ISBN,
		Price:     *req.Price,
		WrittenBy: req.WrittenBy,
		Quantity:  *req.Quantity,
		Icon:      req.Icon,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, UpdateBookResponse{
		Message:     "Book updated successfully.",
		UpdatedBook: book,
	})
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body DeleteBookRequest true "Book ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /deleteBook [delete]
func (h *BookHandler) DeleteBook(c echo.Context) error {
	var req DeleteBookRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("Book ID is required to delete.")
	}
	id, ok := parseID(req.ID)
	if !ok {
		return badRequest("Invalid book ID format.")
	}

	if err := h.bookService.DeleteBook(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Book deleted successfully."})
}

// UpdateBookQuantity godoc
// @Summary Set the stock count of a book
// @Tags books
// @Accept json
// @Produce json
// @Param request body UpdateQuantityRequest true "Book ID and quantity"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /updateBookQuantity [put]
func (h *BookHandler) UpdateBookQuantity(c echo.Context) error {
	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if req.BookID == "" || req.Quantity == nil {
		return badRequest("Book ID and quantity are required.")
	}
	id, ok := parseID(req.BookID)
	if !ok {
		return badRequest("Invalid book ID format.")
	}

	if err := h.bookService.UpdateQuantity(c.Request().Context(), id, *req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Book quantity updated successfully."})
}

// parseQuantity accepts any integral number, including forms like "5.0".
func parseQuantity(raw string) (int, error) {
	q, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	// Also rejects values that overflow int64.
	if !q.Equal(decimal.NewFromInt(q.IntPart())) {
		return 0, errNotWhole
	}
	return int(q.IntPart()), nil
}
