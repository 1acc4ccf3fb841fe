package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/auth"
	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/ratelimit"
	"bookstore/internal/repository"
	"bookstore/internal/service"
	"bookstore/internal/testutil"
)

func newSessionServer(t *testing.T) (*echo.Echo, *auth.JWTService, model.User) {
	t.Helper()
	db := testutil.InitMemoryDB(t)
	jwtService := auth.NewJWTService("access", "refresh")
	authService := service.NewAuthService(repository.NewUserRepository(db), jwtService)
	user := testutil.SetupUser(t, db, "reader@example.com", "pw", model.RoleUser)

	e := echo.New()
	e.GET("/user", func(c echo.Context) error {
		u, ok := CurrentUser(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, u)
	}, Session(jwtService, authService))
	return e, jwtService, user
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSession(t *testing.T) {
	e, jwtService, user := newSessionServer(t)

	valid, err := jwtService.GenerateAccessToken(user.ID)
	require.NoError(t, err)
	ghost, err := jwtService.GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	refresh, err := jwtService.GenerateRefreshToken(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"valid", "Bearer " + valid, http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "Unauthorized: No token provided"},
		{"garbage", "Bearer nonsense", http.StatusUnauthorized, "Unauthorized: Invalid token"},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, "Unauthorized: Invalid token"},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized, "Unauthorized: User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/user", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeError(t, rec).Error)
				return
			}
			assert.Contains(t, rec.Body.String(), `"email":"reader@example.com"`)
			assert.NotContains(t, rec.Body.String(), "password")
		})
	}
}

type allowList []string

func (a allowList) OriginAllowed(origin string) bool {
	for _, o := range a {
		if o == origin {
			return true
		}
	}
	return false
}

func TestOriginGateAndCORS(t *testing.T) {
	allowed := allowList{"https://shop.example.com"}
	e := echo.New()
	e.Use(OriginGate(allowed), CORS(allowed))
	e.GET("/getAllBooks", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/getAllBooks", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/getAllBooks", nil)
	req.Header.Set(echo.HeaderOrigin, "https://shop.example.com")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	req = httptest.NewRequest(http.MethodGet, "/getAllBooks", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec = serve(e, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRateLimitMemoryStore(t *testing.T) {
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(MemoryRateLimiterStore(2, time.Minute)))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		codes = append(codes, serve(e, req).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestRateLimitRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	client := ratelimit.NewRedisClient(srv.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := ratelimit.NewFixedWindowLimiter(client, "test", 1, time.Minute)
	require.NoError(t, err)

	e := echo.New()
	e.POST("/register", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, RateLimit(limiter))

	req := httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, http.StatusCreated, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := serve(e, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)

	srv.Close()
	req = httptest.NewRequest(http.MethodPost, "/register", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	assert.Equal(t, http.StatusTooManyRequests, serve(e, req).Code)
}
