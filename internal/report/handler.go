package report

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// Handler exposes report endpoints under /api/reports.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Monthly handles GET /api/reports/monthly?year=&month=.
func (h *Handler) Monthly(c *fiber.Ctx, who auth.Identity) error {
	var (
		errs  validation.Errors
		year  int
		month int
	)
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 9999 {
			errs.Add("year", "Year must be a valid number")
		} else {
			year = n
		}
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			errs.Add("month", "Month must be between 1 and 12")
		} else {
			month = n
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	out, err := h.service.Monthly(c.UserContext(), who, year, time.Month(month))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ByCategory handles GET /api/reports/category?startDate=&endDate=.
func (h *Handler) ByCategory(c *fiber.Ctx, who auth.Identity) error {
	var (
		errs validation.Errors
		r    Range
	)
	if v := c.Query("startDate"); v != "" {
		if d, ok := validation.ParseDate(v); ok {
			r.From, r.FromText = &d, v
		} else {
			errs.Add("startDate", "Start date must be in ISO format")
		}
	}
	if v := c.Query("endDate"); v != "" {
		if d, ok := validation.ParseDate(v); ok {
			r.To, r.ToText = &d, v
		} else {
			errs.Add("endDate", "End date must be in ISO format")
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	out, err := h.service.ByCategory(c.UserContext(), who, r)
	if err != nil {
		return err
	}
	return c.JSON(out)
}
