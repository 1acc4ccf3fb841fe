package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/model"
)

func TestJWTService_AccessToken(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Empty(t, claims.Email)
	assert.WithinDuration(t, time.Now().Add(AccessTokenExpiry), claims.ExpiresAt.Time, 5*time.Second)

	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTService_FederatedAccessToken(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	userID := uuid.New()

	token, err := svc.GenerateFederatedAccessToken(userID, "reader@example.com", model.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(FederatedAccessTokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_SecretsAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	userID := uuid.New()

	refresh, err := svc.GenerateRefreshToken(userID)
	require.NoError(t, err)
	access, err := svc.GenerateAccessToken(userID)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_RefreshTokensAreUnique(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	userID := uuid.New()

	first, err := svc.GenerateRefreshToken(userID)
	require.NoError(t, err)
	second, err := svc.GenerateRefreshToken(userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	svc.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := svc.GenerateAccessToken(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_Garbage(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret")
	_, err := svc.ValidateAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("", ""))
}
