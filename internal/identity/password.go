package identity

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// HashPassword returns a bcrypt hash of password. Passwords longer than
// bcrypt accepts come back as a validation error.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, validation.Errors{{Field: "password", Message: "Password must not exceed 72 bytes"}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword compares a bcrypt hash with a plaintext candidate.
func CheckPassword(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}
