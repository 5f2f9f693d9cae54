package identity

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned by repositories when no user matches.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so callers cannot tell which accounts exist.
	ErrInvalidCredentials = errors.New("Invalid email or password.")
)

// User represents a registered account holder.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public is the user as exposed over the API; it never carries the hash.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public strips secrets from the user.
func (u User) Public() Public {
	return Public{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

// Registration request structure.
type Registration struct {
	Name     string
	Email    string
	Password string
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}
