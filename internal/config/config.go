package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
// It is built once at startup and passed by pointer; nothing mutates it afterwards.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DBDSN    string `env:"DB_DSN" envDefault:"user:password@tcp(localhost:3306)/bookstore?charset=utf8mb4&parseTime=True&loc=Local"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string `env:"REFRESH_TOKEN_SECRET"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`
	GoogleJWKSURL  string `env:"GOOGLE_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
	// FederatedAdminSelfSignup lets /google create Admin accounts on the
	// client's say-so. Off unless explicitly enabled.
	FederatedAdminSelfSignup bool `env:"FEDERATED_ADMIN_SELF_SIGNUP" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	AuthRateLimit  int           `env:"AUTH_RATE_LIMIT" envDefault:"20"`
	AuthRateWindow time.Duration `env:"AUTH_RATE_WINDOW" envDefault:"1m"`

	IconBackend    string `env:"ICON_BACKEND" envDefault:"disk"`
	IconDir        string `env:"ICON_DIR" envDefault:"."`
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"bookstore"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	SwaggerHost string `env:"SWAGGER_HOST"`
	ResetDB     bool   `env:"RESET_DB" envDefault:"false"`
}

// DatabaseConfig is the subset of Config needed by tools that only touch
// the database, such as the seeder.
type DatabaseConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DBDriver string `env:"DB_DRIVER" envDefault:"mysql"`
	DBDSN    string `env:"DB_DSN" envDefault:"user:password@tcp(localhost:3306)/bookstore?charset=utf8mb4&parseTime=True&loc=Local"`
}

var (
	// ErrMissingSecret is returned when either token secret is empty.
	ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	// ErrSharedSecret is returned when both token kinds would be signed with the same key.
	ErrSharedSecret = errors.New("access and refresh token secrets must differ")
)

// Load builds Config from an optional .env file and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedOrigins = trimCSV(cfg.AllowedOrigins)
	cfg.DBDriver = normalizeDriver(cfg.DBDriver)
	cfg.IconBackend = strings.ToLower(strings.TrimSpace(cfg.IconBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase reads only the database settings. Token secrets and the
// HTTP surface are not required.
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = normalizeDriver(cfg.DBDriver)
	if err := validateDriver(cfg.DBDriver); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants the rest of the application relies on.
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return ErrMissingSecret
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return ErrSharedSecret
	}
	if err := validateDriver(c.DBDriver); err != nil {
		return err
	}
	switch c.IconBackend {
	case "disk":
	case "minio":
		if c.MinioEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is required when ICON_BACKEND=minio")
		}
	default:
		return fmt.Errorf("unsupported ICON_BACKEND %q", c.IconBackend)
	}
	if c.AuthRateLimit <= 0 || c.AuthRateWindow <= 0 {
		return errors.New("AUTH_RATE_LIMIT and AUTH_RATE_WINDOW must be positive")
	}
	return nil
}

// OriginAllowed reports whether a browser origin may call the API.
func (c *Config) OriginAllowed(origin string) bool {
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

func normalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

func validateDriver(driver string) error {
	switch driver {
	case "mysql", "postgres", "sqlite":
		return nil
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
