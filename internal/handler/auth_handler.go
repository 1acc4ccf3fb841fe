package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"bookstore/internal/auth"
	"bookstore/internal/errors"
	"bookstore/internal/middleware"
	"bookstore/internal/model"
	"bookstore/internal/service"
)

// RefreshCookie is the cookie carrying the refresh token between /login and /refresh.
const RefreshCookie = "refresh_token"

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService      service.AuthService
	federatedService service.FederatedService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, federatedService service.FederatedService) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		federatedService: federatedService,
	}
}

// RegisterRequest represents the registration request.
type RegisterRequest struct {
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirm_password"`
	Role            model.Role `json:"role"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response. The refresh token travels in a cookie.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	Role        model.Role `json:"role"`
}

// RefreshResponse carries a freshly minted access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// GoogleRequest represents a Google sign-in request.
type GoogleRequest struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
}

// GoogleResponse represents a Google sign-in response.
type GoogleResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// UserResponse wraps the authenticated user's profile.
type UserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Param request body RegisterRequest true "Registration data"
// @Success 201
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	_, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// Login godoc
// @Summary Login with email and password
// @Description Sets an HttpOnly refresh_token cookie valid for one day.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 422 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, errors.ErrorResponse{
			Error: "Invalid fields",
			Code:  "INVALID_FIELDS",
		})
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(refreshCookie(result.RefreshToken, int(auth.RefreshTokenExpiry/time.Second)))
	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		Role:        result.Role,
	})
}

// Refresh godoc
// @Summary Exchange the refresh cookie for a new access token
// @Tags auth
// @Produce json
// @Success 200 {object} RefreshResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	accessToken, err := h.authService.Refresh(c.Request().Context(), cookieValue(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Logout godoc
// @Summary Logout and clear the refresh cookie
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Success 204
// @Failure 500 {object} errors.ErrorResponse
// @Router /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	token := cookieValue(c)
	if token == "" {
		return c.NoContent(http.StatusNoContent)
	}

	cleared, err := h.authService.Logout(c.Request().Context(), token)
	if err != nil {
		return respondError(c, err)
	}

	c.SetCookie(refreshCookie("", -1))
	if !cleared {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}

// User godoc
// @Summary Get the authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user [get]
func (h *AuthHandler) User(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	return c.JSON(http.StatusOK, UserResponse{
		Message: "User retrieved successfully",
		User:    user,
	})
}

// Google godoc
// @Summary Sign in with a Google ID token
// @Description Creates the account on first use. isAdmin is honoured only for an
// @Description existing Admin's bearer token or when self-signup is enabled.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleRequest true "Google ID token"
// @Success 200 {object} GoogleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /google [post]
func (h *AuthHandler) Google(c echo.Context) error {
	var req GoogleRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	result, err := h.federatedService.Authenticate(c.Request().Context(), service.FederatedInput{
		IDToken:           req.Token,
		RequestAdmin:      req.IsAdmin,
		CallerAccessToken: bearerToken(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, GoogleResponse{
		Success:     true,
		Message:     "User authenticated successfully",
		AccessToken: result.AccessToken,
		User:        result.User,
	})
}

func refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

func cookieValue(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
