package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// AuthService implements the identity boundary: sign-up, sign-in, and the
// get-or-create profile lookup performed on each authenticated action.
type AuthService struct {
	userRepo ports.UserRepository
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo ports.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		logger:   logger.With("service", "auth"),
	}
}

// Register creates a new user account. New profiles always start with the
// user role.
func (s *AuthService) Register(ctx context.Context, fullName, email, password string) (*domain.User, error) {
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	user, err := domain.NewUser(domain.UserRegistrationParams{
		FullName: fullName,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	return s.userRepo.Create(ctx, user)
}

// Login authenticates a user. Unknown email and wrong password produce the
// same answer so the response does not reveal which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// GetOrCreateProfile returns the stored profile for userID, creating a
// default one on first sight. The fallback full name is derived from the
// email local part.
func (s *AuthService) GetOrCreateProfile(ctx context.Context, userID uuid.UUID, fallbackEmail string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	profile := domain.DefaultProfile(userID, fallbackEmail)
	created, err := s.userRepo.Create(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("created default profile",
		"user_id", userID,
		"full_name", created.FullName,
	)
	return created, nil
}
