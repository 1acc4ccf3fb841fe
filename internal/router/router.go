package router

import (
	"log/slog"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bookstore/internal/auth"
	"bookstore/internal/config"
	"bookstore/internal/handler"
	"bookstore/internal/middleware"
	"bookstore/internal/service"
	"bookstore/internal/storage"
)

// Deps is everything the routes need.
type Deps struct {
	JWT         *auth.JWTService
	AuthService service.AuthService
	// AuthLimiter throttles the credential endpoints: /login, /register and /google.
	AuthLimiter echomw.RateLimiterStore
	Logger      *slog.Logger

	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Books     *handler.BookHandler
	Purchases *handler.PurchaseHandler
	Locations *handler.LocationHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, d Deps) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger))
	e.Use(echomw.Recover())
	e.Use(middleware.OriginGate(cfg))
	e.Use(middleware.CORS(cfg.AllowedOrigins))

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", d.Health.Healthz)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.IconBackend == "disk" {
		e.Static("/"+storage.IconPrefix, filepath.Join(cfg.IconDir, filepath.FromSlash(storage.IconPrefix)))
	}

	session := middleware.Session(d.JWT, d.AuthService)
	limited := middleware.RateLimit(d.AuthLimiter)

	// Auth
	e.POST("/register", d.Auth.Register, limited)
	e.POST("/login", d.Auth.Login, limited)
	e.POST("/google", d.Auth.Google, limited)
	e.POST("/logout", d.Auth.Logout)
	e.POST("/refresh", d.Auth.Refresh)
	e.GET("/user", d.Auth.User, session)

	// Inventory
	e.POST("/addBook", d.Books.AddBook, session)
	e.GET("/getBooks", d.Books.GetBooks, session)
	e.GET("/getAllBooks", d.Books.GetAllBooks)
	e.GET("/getBookById/:_id", d.Books.GetBookByID)
	e.PUT("/updateBook", d.Books.UpdateBook)
	e.DELETE("/deleteBook", d.Books.DeleteBook)
	e.PUT("/updateBookQuantity", d.Books.UpdateBookQuantity)

	// Purchases
	e.POST("/addPurchase", d.Purchases.AddPurchase)
	e.GET("/getPurchases", d.Purchases.GetPurchases, session)

	// Locations
	e.GET("/states", d.Locations.States)
	e.GET("/getCitiesByStateId/:stateId", d.Locations.CitiesByState)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
