package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// ErrorHandler renders every error returned by a handler as JSON:
//
//	validation.Errors -> 400 {error, details}
//	*auth.Error       -> 401 {error, reason}
//	*fiber.Error      -> its code, {error}
//	anything else     -> 500 {error}, with the cause only in development
func ErrorHandler(logger *slog.Logger, development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			verrs   validation.Errors
			authErr *auth.Error
			fe      *fiber.Error
		)
		switch {
		case errors.As(err, &verrs):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":   "Validation failed",
				"details": verrs,
			})
		case errors.As(err, &authErr):
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"error":  authErr.Message,
				"reason": authErr.Reason,
			})
		case errors.As(err, &fe):
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}

		logger.Error("unhandled error",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("request_id", RequestIDFrom(c)),
			slog.Any("error", err),
		)
		body := fiber.Map{"error": "Internal server error"}
		if development {
			body["message"] = err.Error()
		}
		return c.Status(http.StatusInternalServerError).JSON(body)
	}
}
