package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/expense-pilot/expense_pilot/internal/identity"
)

const bearerPrefix = "Bearer "

// Identity is the authenticated caller for one request.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// Authenticator turns an Authorization header into an Identity.
type Authenticator struct {
	tokens *JWTManager
	users  identity.Repository
}

// NewAuthenticator wires token verification to the credential store.
func NewAuthenticator(tokens *JWTManager, users identity.Repository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate verifies the bearer token in rawHeader and loads its user.
// Auth failures are *Error values; store failures are returned wrapped.
func (a *Authenticator) Authenticate(ctx context.Context, rawHeader string) (Identity, error) {
	if !strings.HasPrefix(rawHeader, bearerPrefix) {
		return Identity{}, ErrMissingToken
	}
	token := strings.TrimSpace(rawHeader[len(bearerPrefix):])
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return Identity{}, err
	}

	user, err := a.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return Identity{}, ErrUnknownUser
		}
		return Identity{}, fmt.Errorf("load user %s: %w", claims.UserID, err)
	}

	return Identity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}
