package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookstore/internal/auth"
	apperrors "bookstore/internal/errors"
	"bookstore/internal/model"
	"bookstore/internal/repository"
)

var (
	// ErrInvalidCredentials is returned for an unknown email and for a wrong password alike.
	ErrInvalidCredentials = apperrors.WithMessage(apperrors.ErrUnauthorized, "Email or Password is incorrect")
	// ErrMissingRefreshToken is returned when the refresh cookie is absent.
	ErrMissingRefreshToken = apperrors.WithMessage(apperrors.ErrUnauthorized, "Refresh token required")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown, expired or belongs to someone else.
	ErrInvalidRefreshToken = apperrors.WithMessage(apperrors.ErrForbidden, "Invalid refresh token")
	// ErrUserNotFound is returned when a valid access token names a deleted user.
	ErrUserNotFound = apperrors.WithMessage(apperrors.ErrUnauthorized, "Unauthorized: User not found")

	validate = validator.New()
)

// RegisterInput holds the fields of a local sign-up.
type RegisterInput struct {
	Username        string
	Email           string
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
	Role            model.Role
}

// LoginResult is what a successful password login hands back.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Role         model.Role
}

// AuthService handles local authentication and the refresh-token session.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) (cleared bool, err error)
	CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
	}
}

// Register validates the sign-up and creates a user with a hashed password.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = model.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Username == "" || in.Email == "" || in.FirstName == "" || in.LastName == "" ||
		in.Password == "" || in.ConfirmPassword == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnprocessable, "Invalid fields")
	}
	if err := validate.Var(in.Email, "email"); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrUnprocessable, "Invalid email")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperrors.WithMessage(apperrors.ErrUnprocessable, "Password do not match")
	}
	if !in.Role.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid role selected.")
	}

	if taken, err := s.exists(ctx, s.userRepo.FindByEmail, in.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.WithMessage(apperrors.ErrConflict, "Email already registered")
	}
	if taken, err := s.exists(ctx, s.userRepo.FindByUsername, in.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperrors.WithMessage(apperrors.ErrConflict, "Username already taken")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.WithMessage(apperrors.ErrConflict, "Email or username already registered")
		}
		slog.ErrorContext(ctx, "register: create user", "error", err)
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Could not register")
	}
	return user, nil
}

func (s *authService) exists(ctx context.Context, find func(context.Context, string) (*model.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("check user existence: %w", err)
	}
}

// Login authenticates a user and returns access and refresh tokens. The
// refresh token replaces whatever was stored for the user before.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrUnprocessable, "Invalid fields")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.userRepo.SetRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Role:         user.Role,
	}, nil
}

// Refresh exchanges the stored refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingRefreshToken
	}

	holder, err := s.userRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find refresh token holder: %w", err)
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil || claims.UserID != holder.ID.String() {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(holder.ID)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout clears the stored refresh token of whoever holds it. It reports
// false when there was nothing to clear.
func (s *authService) Logout(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, nil
	}

	holder, err := s.userRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("find refresh token holder: %w", err)
	}

	if err := s.userRepo.SetRefreshToken(ctx, holder.ID, nil); err != nil {
		return false, fmt.Errorf("clear refresh token: %w", err)
	}
	return true, nil
}

// CurrentUser loads the profile of an authenticated user, without secrets.
func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
