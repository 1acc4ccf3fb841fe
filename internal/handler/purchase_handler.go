package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bookstore/internal/middleware"
	"bookstore/internal/model"
	"bookstore/internal/service"
)

// PurchaseHandler handles purchase endpoints.
type PurchaseHandler struct {
	purchaseService service.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(purchaseService service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// AddPurchaseRequest represents a purchase request.
type AddPurchaseRequest struct {
	UserID        string               `json:"userId"`
	BookID        string               `json:"bookId"`
	Quantity      int                  `json:"quantity"`
	PickupDetails *model.PickupDetails `json:"pickupDetails"`
}

// AddPurchaseResponse represents the cumulative purchase after a buy.
type AddPurchaseResponse struct {
	Message         string                   `json:"message"`
	PurchaseDetails *service.PurchaseSummary `json:"purchaseDetails"`
}

// AddPurchase godoc
// @Summary Buy copies of a book for pickup
// @Description Repeated purchases of the same book by the same user are merged.
// @Tags purchases
// @Accept json
// @Produce json
// @Param request body AddPurchaseRequest true "Purchase"
// @Success 200 {object} AddPurchaseResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /addPurchase [post]
func (h *PurchaseHandler) AddPurchase(c echo.Context) error {
	var req AddPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	var userID, bookID uuid.UUID
	if req.UserID != "" {
		id, ok := parseID(req.UserID)
		if !ok {
			return badRequest("Invalid user ID format.")
		}
		userID = id
	}
	if req.BookID != "" {
		id, ok := parseID(req.BookID)
		if !ok {
			return badRequest("Invalid book ID format.")
		}
		bookID = id
	}

	summary, err := h.purchaseService.AddPurchase(c.Request().Context(), service.PurchaseInput{
		UserID:   userID,
		BookID:   bookID,
		Quantity: req.Quantity,
		Pickup:   req.PickupDetails,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, AddPurchaseResponse{
		Message:         "Purchase successful.",
		PurchaseDetails: summary,
	})
}

// GetPurchases godoc
// @Summary List purchases visible to the caller
// @Description Admins see purchases of the books they added; users see their own.
// @Tags purchases
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.PurchaseView
// @Failure 401 {object} errors.ErrorResponse
// @Router /getPurchases [get]
func (h *PurchaseHandler) GetPurchases(c echo.Context) error {
	caller, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	purchases, err := h.purchaseService.ListPurchases(c.Request().Context(), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, purchases)
}
