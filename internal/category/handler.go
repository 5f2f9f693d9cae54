package category

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/ledger"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// Handler exposes category endpoints under /api/categories.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type nameRequest struct {
	Name *string `json:"name"`
}

type categoryResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	TransactionCount *int      `json:"transactionCount,omitempty"`
}

func toResponse(cat ledger.Category) categoryResponse {
	return categoryResponse{ID: cat.ID, Name: cat.Name, CreatedAt: cat.CreatedAt, UpdatedAt: cat.UpdatedAt}
}

func toSummaryResponse(sum ledger.CategorySummary) categoryResponse {
	resp := toResponse(sum.Category)
	n := sum.TransactionCount
	resp.TransactionCount = &n
	return resp
}

// Create adds a category.
func (h *Handler) Create(c *fiber.Ctx, _ auth.Identity) error {
	name, err := parseName(c)
	if err != nil {
		return err
	}
	cat, err := h.service.Create(c.UserContext(), name)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":  "Category created successfully",
		"category": toResponse(cat),
	})
}

// List returns all categories with usage counts.
func (h *Handler) List(c *fiber.Ctx, _ auth.Identity) error {
	cats, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, cat := range cats {
		out = append(out, toSummaryResponse(cat))
	}
	return c.JSON(fiber.Map{"count": len(out), "categories": out})
}

// Get returns a single category.
func (h *Handler) Get(c *fiber.Ctx, _ auth.Identity) error {
	id, ok := categoryID(c)
	if !ok {
		return errNotFound()
	}
	cat, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"category": toSummaryResponse(cat)})
}

// Update renames a category.
func (h *Handler) Update(c *fiber.Ctx, _ auth.Identity) error {
	name, err := parseName(c)
	if err != nil {
		return err
	}
	id, ok := categoryID(c)
	if !ok {
		return errNotFound()
	}
	cat, err := h.service.Rename(c.UserContext(), id, name)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"message":  "Category updated successfully",
		"category": toResponse(cat),
	})
}

// Delete removes a category.
func (h *Handler) Delete(c *fiber.Ctx, _ auth.Identity) error {
	id, ok := categoryID(c)
	if !ok {
		return errNotFound()
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}

func parseName(c *fiber.Ctx) (string, error) {
	var req nameRequest
	if err := c.BodyParser(&req); err != nil {
		return "", validation.Errors{{Field: "body", Message: "Request body must be a JSON object with correctly typed fields"}}
	}
	if req.Name == nil {
		return "", validation.Errors{{Field: "name", Message: "Category name is required"}}
	}
	return *req.Name, nil
}

func categoryID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrCategoryNotFound):
		return errNotFound()
	case errors.Is(err, ledger.ErrDuplicateCategory):
		return fiber.NewError(http.StatusBadRequest, "Category with this name already exists.")
	case errors.Is(err, ledger.ErrCategoryInUse):
		return fiber.NewError(http.StatusBadRequest, "Category is still used by transactions.")
	default:
		return err
	}
}

func errNotFound() error {
	return fiber.NewError(http.StatusNotFound, "Category not found.")
}
