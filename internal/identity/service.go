package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/expense-pilot/expense_pilot/internal/validation"
)

const (
	minPasswordLength = 6
	// bcrypt only accepts up to 72 bytes of input.
	maxPasswordBytes = 72
)

// Service manages account registration and credential checks.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register validates the request, hashes the password and stores the user.
func (s *Service) Register(ctx context.Context, reg Registration) (User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = normalizeEmail(reg.Email)

	var errs validation.Errors
	errs.Length("name", reg.Name, 2, 50,
		"Name is required", "Name must be at least 2 characters long", "Name must not exceed 50 characters")
	if reg.Email == "" {
		errs.Add("email", "Email is required")
	} else {
		errs.Email("email", reg.Email, "Please provide a valid email address")
	}
	switch {
	case reg.Password == "":
		errs.Add("password", "Password is required")
	case len(reg.Password) < minPasswordLength:
		errs.Add("password", "Password must be at least 6 characters long")
	case len(reg.Password) > maxPasswordBytes:
		errs.Add("password", "Password must not exceed 72 bytes")
	}
	if err := errs.Err(); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.New().String(),
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies email and password. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	var errs validation.Errors
	if strings.TrimSpace(creds.Email) == "" {
		errs.Add("email", "Email is required")
	}
	if creds.Password == "" {
		errs.Add("password", "Password is required")
	}
	if err := errs.Err(); err != nil {
		return User{}, err
	}

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(creds.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := CheckPassword(user.PasswordHash, creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
