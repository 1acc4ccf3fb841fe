package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
	"bookstore/internal/testutil"
)

// MockIdentityVerifier is a mock implementation of IdentityVerifier.
type MockIdentityVerifier struct {
	mock.Mock
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.GoogleIdentity), args.Error(1)
}

func googleIdentity() *auth.GoogleIdentity {
	return &auth.GoogleIdentity{
		Subject:    "google-sub-1",
		Email:      "Reader@Example.com",
		Name:       "Jane Reader",
		GivenName:  "Jane",
		FamilyName: "Reader",
	}
}

func newFederatedFixture(t *testing.T, allowAdminSignup bool) (FederatedService, *MockIdentityVerifier, *auth.JWTService, *gorm.DB) {
	t.Helper()
	db := testutil.InitMemoryDB(t)
	jwtService := auth.NewJWTService("access", "refresh")
	verifier := new(MockIdentityVerifier)
	svc := NewFederatedService(repository.NewUserRepository(db), jwtService, verifier, allowAdminSignup)
	return svc, verifier, jwtService, db
}

func TestFederatedService_CreatesUserOnFirstSignIn(t *testing.T) {
	svc, verifier, jwtService, _ := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)

	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "reader@example.com", result.User.Email)
	assert.Equal(t, "Jane Reader", result.User.Username)
	assert.Equal(t, model.RoleUser, result.User.Role)
	assert.Empty(t, result.User.PasswordHash)
	require.NotNil(t, result.User.GoogleID)
	assert.Equal(t, "google-sub-1", *result.User.GoogleID)

	claims, err := jwtService.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.UserID)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.Equal(t, model.RoleUser, claims.Role)

	again, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, result.User.ID, again.User.ID)
}

func TestFederatedService_UsernameFallsBackToEmail(t *testing.T) {
	svc, verifier, _, _ := newFederatedFixture(t, false)
	identity := googleIdentity()
	identity.Name = ""
	verifier.On("Verify", mock.Anything, "id-token").Return(identity, nil)

	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", result.User.Username)
	assert.Equal(t, "reader@example.com", result.User.Email)
}

func TestFederatedService_TakenDisplayNameFallsBackToEmail(t *testing.T) {
	svc, verifier, _, db := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)
	require.NoError(t, db.Create(&model.User{Username: "Jane Reader", Email: "jane@other.example.com", Role: model.RoleUser}).Error)

	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "reader@example.com", result.User.Username)
	assert.Equal(t, "reader@example.com", result.User.Email)
}

func TestFederatedService_AdminRequestIsUntrusted(t *testing.T) {
	svc, verifier, _, _ := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)

	_, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true, CallerAccessToken: "garbage"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestFederatedService_AdminMayProvisionAdmin(t *testing.T) {
	svc, verifier, jwtService, db := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)

	plain := testutil.SetupUser(t, db, "plain@example.com", "pw", model.RoleUser)
	plainToken, err := jwtService.GenerateAccessToken(plain.ID)
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true, CallerAccessToken: plainToken})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := testutil.SetupUser(t, db, "admin@example.com", "pw", model.RoleAdmin)
	adminToken, err := jwtService.GenerateAccessToken(admin.ID)
	require.NoError(t, err)
	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true, CallerAccessToken: adminToken})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, result.User.Role)
}

func TestFederatedService_SelfSignupFlag(t *testing.T) {
	svc, verifier, _, _ := newFederatedFixture(t, true)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)

	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, result.User.Role)
}

func TestFederatedService_ExistingUserKeepsRole(t *testing.T) {
	svc, verifier, _, db := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "id-token").Return(googleIdentity(), nil)
	existing := testutil.SetupUser(t, db, "reader@example.com", "pw", model.RoleUser)

	result, err := svc.Authenticate(context.Background(), FederatedInput{IDToken: "id-token", RequestAdmin: true})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, existing.ID, result.User.ID)
	assert.Equal(t, model.RoleUser, result.User.Role)
}

func TestFederatedService_VerificationFailures(t *testing.T) {
	svc, verifier, _, _ := newFederatedFixture(t, false)
	verifier.On("Verify", mock.Anything, "bad").Return(nil, errors.Join(auth.ErrInvalidIDToken, errors.New("expired")))
	verifier.On("Verify", mock.Anything, "network").Return(nil, errors.New("dial tcp: timeout"))

	_, err := svc.Authenticate(context.Background(), FederatedInput{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Authenticate(context.Background(), FederatedInput{IDToken: "bad"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Authenticate(context.Background(), FederatedInput{IDToken: "network"})
	require.Error(t, err)
	assert.False(t, apperrors.IsClientError(err))
}
