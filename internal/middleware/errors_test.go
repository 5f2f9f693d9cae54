package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/logging"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

func errorApp(development bool, err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard(), development)})
	app.Get("/", func(*fiber.Ctx) error { return err })
	return app
}

func render(t *testing.T, app *fiber.App) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestErrorHandlerShapes(t *testing.T) {
	status, body := render(t, errorApp(false, validation.Errors{{Field: "amount", Message: "Amount must be positive"}}))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["error"])
	assert.Len(t, body["details"], 1)

	status, body = render(t, errorApp(false, auth.ErrExpiredToken))
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "expired_token", body["reason"])

	status, body = render(t, errorApp(false, fiber.NewError(fiber.StatusNotFound, "Expense not found.")))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Expense not found.", body["error"])
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	boom := errors.New("connection refused")

	status, body := render(t, errorApp(false, boom))
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["error"])
	assert.NotContains(t, body, "message")

	_, body = render(t, errorApp(true, boom))
	assert.Equal(t, "connection refused", body["message"])
}
