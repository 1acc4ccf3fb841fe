// Package middleware holds the echo middleware guarding the API.
package middleware

import (
	"errors"
	"net/http"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"bookstore/internal/auth"
	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/service"
)

const (
	claimsKey = "claims"
	userKey   = "currentUser"
)

// Session requires a valid bearer access token and loads its user. The
// profile is stored in the context without password or refresh token.
func Session(jwtService *auth.JWTService, authService service.AuthService) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) {
				return unauthorized("Unauthorized: No token provided")
			}
			return unauthorized("Unauthorized: Invalid token")
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(loadUser(authService)(next))
	}
}

func loadUser(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.Claims)
			if !ok {
				return unauthorized("Unauthorized: Invalid token")
			}
			userID, err := claims.UserUUID()
			if err != nil {
				return unauthorized("Unauthorized: Invalid token")
			}
			user, err := authService.CurrentUser(c.Request().Context(), userID)
			if err != nil {
				httpErr := apperrors.MapErrorToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the user loaded by Session.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(userKey).(*model.User)
	return user, ok && user != nil
}

func unauthorized(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}
