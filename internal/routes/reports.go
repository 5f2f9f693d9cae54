package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/middleware"
	"github.com/expense-pilot/expense_pilot/internal/report"
)

// RegisterReportRoutes wires the report endpoints.
func RegisterReportRoutes(r fiber.Router, h *report.Handler, protect func(middleware.IdentityHandler) fiber.Handler) {
	group := r.Group("/reports")
	group.Get("/monthly", protect(h.Monthly))
	group.Get("/category", protect(h.ByCategory))
}
