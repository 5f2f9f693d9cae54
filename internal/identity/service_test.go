package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expense-pilot/expense_pilot/internal/validation"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Name: "Ana", Email: " Ana@Example.com ", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NotEqual(t, []byte("password123"), user.PasswordHash)

	authed, err := svc.Authenticate(ctx, Credentials{Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	fetched, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", fetched.Name)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Name: "Other", Email: "ANA@example.com", Password: "password456"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Register(context.Background(), Registration{Name: "A", Email: "nope", Password: "123"})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))

	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "Name must be at least 2 characters long", fields["name"])
	assert.Equal(t, "Please provide a valid email address", fields["email"])
	assert.Equal(t, "Password must be at least 6 characters long", fields["password"])
}

func TestRegisterRejectsPasswordLongerThanBcryptAccepts(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Register(context.Background(), Registration{
		Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("p", 80),
	})
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "expected validation errors, got %v", err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "password", verrs[0].Field)

	_, err = svc.Register(context.Background(), Registration{
		Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("p", 72),
	})
	assert.NoError(t, err)
}

func TestHashPasswordTooLongIsValidationError(t *testing.T) {
	_, err := HashPassword(strings.Repeat("é", 40))
	var verrs validation.Errors
	assert.True(t, errors.As(err, &verrs))
}

func TestAuthenticateDoesNotRevealWhichPartFailed(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, Registration{Name: "Ana", Email: "ana@example.com", Password: "password123"})
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, Credentials{Email: "ana@example.com", Password: "wrong-password"})
	_, unknownEmail := svc.Authenticate(ctx, Credentials{Email: "nobody@example.com", Password: "password123"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestPublicNeverCarriesPasswordHash(t *testing.T) {
	user := User{ID: "u1", Name: "Ana", Email: "ana@example.com", PasswordHash: []byte("hash")}

	raw, err := json.Marshal(user.Public())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "password")
	assert.NotContains(t, decoded, "passwordHash")
	assert.NotContains(t, decoded, "PasswordHash")
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("securePassword123")
	require.NoError(t, err)

	assert.NoError(t, CheckPassword(hash, "securePassword123"))
	assert.Error(t, CheckPassword(hash, "wrongPassword456"))
	assert.Error(t, CheckPassword([]byte("not-a-valid-bcrypt-hash"), "password"))
}
