package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "bookstore/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"bookstore/internal/auth"
	"bookstore/internal/config"
	"bookstore/internal/db"
	"bookstore/internal/handler"
	"bookstore/internal/logging"
	"bookstore/internal/middleware"
	"bookstore/internal/ratelimit"
	"bookstore/internal/repository"
	"bookstore/internal/router"
	"bookstore/internal/service"
	"bookstore/internal/storage"
)

// @title Bookstore API
// @version 1.0
// @description Bookstore backend: accounts with refresh-token sessions, Google sign-in, inventory, and purchases for pickup.
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.InitLogger(cfg.LogLevel)

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		fatal("database init", err)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			fatal("reset database", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		fatal("auto-migrate", err)
	}

	authLimiter, err := newAuthLimiter(cfg)
	if err != nil {
		fatal("rate limiter init", err)
	}
	icons, err := newIconStore(cfg)
	if err != nil {
		fatal("icon store init", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	bookRepo := repository.NewBookRepository(gormDB)
	purchaseRepo := repository.NewPurchaseRepository(gormDB)
	locationRepo := repository.NewLocationRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret)
	verifier, err := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		ClientID: cfg.GoogleClientID,
		JWKSURL:  cfg.GoogleJWKSURL,
	})
	if err != nil {
		fatal("google verifier init", err)
	}
	if cfg.GoogleClientID == "" {
		logger.Warn("GOOGLE_CLIENT_ID is empty, /google will reject every token")
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService)
	federatedService := service.NewFederatedService(userRepo, jwtService, verifier, cfg.FederatedAdminSelfSignup)
	bookService := service.NewBookService(bookRepo, icons)
	purchaseService := service.NewPurchaseService(repository.NewTransactor(gormDB), bookRepo, purchaseRepo)
	locationService := service.NewLocationService(locationRepo)

	e := echo.New()
	e.HideBanner = true

	// Register routes
	router.Register(e, cfg, router.Deps{
		JWT:         jwtService,
		AuthService: authService,
		AuthLimiter: authLimiter,
		Logger:      logger,
		Health:      handler.NewHealthHandler(gormDB),
		Auth:        handler.NewAuthHandler(authService, federatedService),
		Books:       handler.NewBookHandler(bookService),
		Purchases:   handler.NewPurchaseHandler(purchaseService),
		Locations:   handler.NewLocationHandler(locationService),
	})

	logger.Info("swagger documentation available", "url", swaggerURL(cfg))

	addr := ":" + cfg.ServerPort
	logger.Info("server starting", "addr", addr, "db_driver", cfg.DBDriver, "icon_backend", cfg.IconBackend)
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("server start", err)
	}
}

// newAuthLimiter shares the credential endpoint budget across instances
// through Redis when it is configured, and falls back to process memory.
func newAuthLimiter(cfg *config.Config) (echomw.RateLimiterStore, error) {
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set, using in-memory rate limiter")
		return middleware.MemoryRateLimiterStore(cfg.AuthRateLimit, cfg.AuthRateWindow), nil
	}
	client := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	limiter, err := ratelimit.NewFixedWindowLimiter(client, "", cfg.AuthRateLimit, cfg.AuthRateWindow)
	if err != nil {
		return nil, err
	}
	return limiter, nil
}

func newIconStore(cfg *config.Config) (storage.IconStore, error) {
	if cfg.IconBackend == "minio" {
		store, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewDiskStore(cfg.IconDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
