package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/expense"
	"github.com/expense-pilot/expense_pilot/internal/middleware"
)

// RegisterExpenseRoutes wires the owner-scoped transaction endpoints.
func RegisterExpenseRoutes(r fiber.Router, h *expense.Handler, protect func(middleware.IdentityHandler) fiber.Handler) {
	group := r.Group("/expenses")
	group.Post("/", protect(h.Create))
	group.Get("/", protect(h.List))
	group.Get("/:id", protect(h.Get))
	group.Put("/:id", protect(h.Update))
	group.Delete("/:id", protect(h.Delete))
}
