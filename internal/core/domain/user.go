package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
)

// UserRole governs visibility and edit rights over tickets.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleAgent UserRole = "agent"
	RoleUser  UserRole = "user"
)

// IsValidRole reports whether r is one of the known roles.
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleUser:
		return true
	}
	return false
}

const (
	MinPasswordLength = 8
	MaxFullNameLength = 255
	MaxEmailLength    = 255
)

// User is a profile row from the user store. Role is assigned at
// profile-creation time and only changed out-of-band.
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role. Agent is defined in
// the type system but not distinguished from user in policy logic.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CheckPassword verifies the provided password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// UserRegistrationParams holds parameters for user registration.
type UserRegistrationParams struct {
	FullName string
	Email    string
	Password string
}

// Validate validates user registration parameters.
func (p *UserRegistrationParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if strings.TrimSpace(p.FullName) == "" {
		errs.Add("fullName", "Full name is required")
	} else if len(p.FullName) > MaxFullNameLength {
		errs.Add("fullName", "Full name must be 255 characters or less")
	}

	if p.Email == "" {
		errs.Add("email", "Email is required")
	} else if len(p.Email) > MaxEmailLength {
		errs.Add("email", "Email must be 255 characters or less")
	} else if !isValidEmail(p.Email) {
		errs.Add("email", "Invalid email format")
	}

	if len(p.Password) < MinPasswordLength {
		errs.Add("password", "Password must be at least 8 characters long")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func isValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", apperrors.ErrPasswordTooShort
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// NewUser creates a new user profile. Every profile starts with the user
// role; promotions happen outside this system.
func NewUser(params UserRegistrationParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           uuid.New(),
		Email:        params.Email,
		FullName:     params.FullName,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// DefaultProfile builds the profile created on first sight of an
// authenticated user that has no stored profile yet. The full name falls
// back to the email local part.
func DefaultProfile(userID uuid.UUID, email string) *User {
	fullName := "New User"
	if at := strings.Index(email, "@"); at > 0 {
		fullName = email[:at]
	}

	return &User{
		ID:        userID,
		Email:     email,
		FullName:  fullName,
		Role:      RoleUser,
		CreatedAt: time.Now().UTC(),
	}
}
