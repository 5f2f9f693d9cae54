package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/expense-pilot/expense_pilot/internal/ledger"
)

// RegisterHealthRoutes adds the /health endpoint. It answers 500 when the
// ledger store cannot be reached; Redis state is reported but never fails
// the check.
func RegisterHealthRoutes(app *fiber.App, store ledger.Ledger, cache *redis.Client) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		body := fiber.Map{
			"status":    "OK",
			"database":  "connected",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		}
		status := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			body["status"] = "ERROR"
			body["database"] = "disconnected"
			status = http.StatusInternalServerError
		}
		if cache != nil {
			body["cache"] = "connected"
			if err := cache.Ping(ctx).Err(); err != nil {
				body["cache"] = "disconnected"
			}
		}
		return c.Status(status).JSON(body)
	})
}
