package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	apperrors "bookstore/internal/errors"
)

// OriginChecker reports whether a browser origin may call the API.
type OriginChecker interface {
	OriginAllowed(origin string) bool
}

// OriginGate rejects requests whose Origin header is not allow-listed.
// Requests without an Origin (server to server, curl) pass.
func OriginGate(origins OriginChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin != "" && !origins.OriginAllowed(origin) {
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ErrorResponse{
					Error: "Not allowed by CORS",
					Code:  "CORS_FORBIDDEN",
				})
			}
			return next(c)
		}
	}
}

// CORS answers preflights and sets credentialed CORS headers for allowed origins.
func CORS(allowed []string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowed,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
		},
	})
}
