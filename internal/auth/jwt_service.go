package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"bookstore/internal/model"
)

const (
	// AccessTokenExpiry is the lifetime of access tokens issued by password login and refresh.
	AccessTokenExpiry = 1800 * time.Second
	// FederatedAccessTokenExpiry is the lifetime of access tokens issued by Google sign-in.
	FederatedAccessTokenExpiry = 7 * 24 * time.Hour
	// RefreshTokenExpiry is the lifetime of refresh tokens and of the refresh cookie.
	RefreshTokenExpiry = 24 * time.Hour
)

var (
	// ErrInvalidToken is returned when a token fails signature, expiry or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents JWT claims. Email and Role are only set on federated access tokens.
type Claims struct {
	UserID string     `json:"id"`
	Email  string     `json:"email,omitempty"`
	Role   model.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserUUID parses the id claim.
func (c *Claims) UserUUID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// JWTService handles JWT token generation and validation. Access and refresh
// tokens are signed with different secrets so one can never stand in for the other.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewJWTService creates a new JWT service with the given secrets.
func NewJWTService(accessSecret, refreshSecret string) *JWTService {
	return &JWTService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		now:           time.Now,
	}
}

// GenerateAccessToken generates a short-lived access token carrying only the user id.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID) (string, error) {
	return s.sign(s.accessSecret, &Claims{UserID: userID.String()}, AccessTokenExpiry)
}

// GenerateFederatedAccessToken generates the longer-lived access token handed out
// by Google sign-in. It embeds email and role as well as the id.
func (s *JWTService) GenerateFederatedAccessToken(userID uuid.UUID, email string, role model.Role) (string, error) {
	return s.sign(s.accessSecret, &Claims{
		UserID: userID.String(),
		Email:  email,
		Role:   role,
	}, FederatedAccessTokenExpiry)
}

// GenerateRefreshToken generates a new refresh token for the user.
func (s *JWTService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return s.sign(s.refreshSecret, &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID: uuid.NewString(),
		},
	}, RefreshTokenExpiry)
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.accessSecret)
}

// ValidateRefreshToken validates a refresh token and returns its claims.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return s.validate(tokenString, s.refreshSecret)
}

func (s *JWTService) sign(secret []byte, claims *Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *JWTService) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
