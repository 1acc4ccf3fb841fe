package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
)

var (
	// ErrInvalidGoogleToken is returned when the ID token cannot be verified.
	ErrInvalidGoogleToken = apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid Google token")
	// ErrAdminProvisioning is returned when a federated sign-up asks for Admin without authority.
	ErrAdminProvisioning = apperrors.WithMessage(apperrors.ErrForbidden, "Admin accounts can only be created by an administrator")
)

// IdentityVerifier verifies an identity provider's ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleIdentity, error)
}

// FederatedInput is a Google sign-in request.
type FederatedInput struct {
	IDToken string
	// RequestAdmin is the client's wish for an Admin account. Untrusted.
	RequestAdmin bool
	// CallerAccessToken is the bearer token sent along, if any. A valid
	// token of an existing Admin authorizes RequestAdmin.
	CallerAccessToken string
}

// FederatedResult is the outcome of a Google sign-in.
type FederatedResult struct {
	AccessToken string
	User        *model.User
	Created     bool
}

// FederatedService signs users in with Google, creating accounts on first use.
type FederatedService interface {
	Authenticate(ctx context.Context, in FederatedInput) (*FederatedResult, error)
}

type federatedService struct {
	userRepo         repository.UserRepository
	jwtService       *auth.JWTService
	verifier         IdentityVerifier
	allowAdminSignup bool
}

// NewFederatedService creates the Google sign-in service. allowAdminSignup
// restores the legacy behaviour of trusting the client's isAdmin flag.
func NewFederatedService(userRepo repository.UserRepository, jwtService *auth.JWTService, verifier IdentityVerifier, allowAdminSignup bool) FederatedService {
	return &federatedService{
		userRepo:         userRepo,
		jwtService:       jwtService,
		verifier:         verifier,
		allowAdminSignup: allowAdminSignup,
	}
}

func (s *federatedService) Authenticate(ctx context.Context, in FederatedInput) (*FederatedResult, error) {
	if in.IDToken == "" {
		return nil, ErrInvalidGoogleToken
	}

	identity, err := s.verifier.Verify(ctx, in.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidIDToken) {
			return nil, ErrInvalidGoogleToken
		}
		return nil, fmt.Errorf("verify google token: %w", err)
	}

	user, created, err := s.findOrCreate(ctx, identity, in)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtService.GenerateFederatedAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &FederatedResult{AccessToken: accessToken, User: user, Created: created}, nil
}

func (s *federatedService) findOrCreate(ctx context.Context, identity *auth.GoogleIdentity, in FederatedInput) (*model.User, bool, error) {
	email := model.NormalizeEmail(identity.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	role := model.RoleUser
	if in.RequestAdmin {
		if !s.mayProvisionAdmin(ctx, in.CallerAccessToken) {
			return nil, false, ErrAdminProvisioning
		}
		role = model.RoleAdmin
	}

	googleID := identity.Subject
	username := identity.Name
	if username == "" {
		username = email
	}
	user := &model.User{
		Username:  username,
		Email:     email,
		GoogleID:  &googleID,
		Name:      identity.Name,
		FirstName: identity.GivenName,
		LastName:  identity.FamilyName,
		Role:      role,
	}

	err = s.userRepo.Create(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Either a concurrent sign-in created the account or the display
		// name is already someone's username.
		if existing, findErr := s.userRepo.FindByEmail(ctx, email); findErr == nil {
			return existing, false, nil
		}
		if user.Username != email {
			user.ID = uuid.Nil
			user.Username = email
			err = s.userRepo.Create(ctx, user)
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("create federated user: %w", err)
	}
	return user, true, nil
}

func (s *federatedService) mayProvisionAdmin(ctx context.Context, callerToken string) bool {
	if s.allowAdminSignup {
		return true
	}
	if callerToken == "" {
		return false
	}
	claims, err := s.jwtService.ValidateAccessToken(callerToken)
	if err != nil {
		return false
	}
	callerID, err := claims.UserUUID()
	if err != nil {
		return false
	}
	caller, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return false
	}
	return caller.Role.IsAdmin()
}
