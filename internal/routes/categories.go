package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/category"
	"github.com/expense-pilot/expense_pilot/internal/middleware"
)

// RegisterCategoryRoutes wires the shared category endpoints.
func RegisterCategoryRoutes(r fiber.Router, h *category.Handler, protect func(middleware.IdentityHandler) fiber.Handler) {
	group := r.Group("/categories")
	group.Post("/", protect(h.Create))
	group.Get("/", protect(h.List))
	group.Get("/:id", protect(h.Get))
	group.Put("/:id", protect(h.Update))
	group.Delete("/:id", protect(h.Delete))
}
