package auth

import (
	"context"

	"github.com/expense-pilot/expense_pilot/internal/identity"
)

// Session is a user together with a freshly issued access token.
type Session struct {
	User  identity.User
	Token string
}

// Service issues tokens on top of identity registration and login.
type Service struct {
	ids    *identity.Service
	tokens *JWTManager
}

func NewService(ids *identity.Service, tokens *JWTManager) *Service {
	return &Service{ids: ids, tokens: tokens}
}

// Register creates the account and signs the user in.
func (s *Service) Register(ctx context.Context, reg identity.Registration) (Session, error) {
	user, err := s.ids.Register(ctx, reg)
	if err != nil {
		return Session{}, err
	}
	return s.issue(user)
}

// Login validates credentials (by delegating to identity.Service) and issues a token.
func (s *Service) Login(ctx context.Context, creds identity.Credentials) (Session, error) {
	user, err := s.ids.Authenticate(ctx, creds)
	if err != nil {
		return Session{}, err
	}
	return s.issue(user)
}

// Profile loads the full user record behind an identity.
func (s *Service) Profile(ctx context.Context, who Identity) (identity.User, error) {
	return s.ids.Get(ctx, who.UserID)
}

func (s *Service) issue(user identity.User) (Session, error) {
	token, _, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}
