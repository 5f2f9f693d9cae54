package expense

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/ledger"
	"github.com/expense-pilot/expense_pilot/internal/patch"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// Handler exposes transaction endpoints under /api/expenses.
type Handler struct {
	service *Service
}

// NewHandler builds a transaction HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Type        *string          `json:"type"`
	Date        *string          `json:"date"`
	CategoryID  *int64           `json:"categoryId"`
}

type updateRequest struct {
	Amount      patch.Field[decimal.Decimal] `json:"amount"`
	Description patch.Field[string]          `json:"description"`
	Type        patch.Field[string]          `json:"type"`
	Date        patch.Field[string]          `json:"date"`
	CategoryID  patch.Field[int64]           `json:"categoryId"`
}

type categoryRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type expenseResponse struct {
	ID          int64        `json:"id"`
	Amount      float64      `json:"amount"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	Date        time.Time    `json:"date"`
	UserID      string       `json:"userId"`
	CategoryID  *int64       `json:"categoryId"`
	Category    *categoryRef `json:"category"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func toResponse(tx ledger.Transaction) expenseResponse {
	resp := expenseResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.InexactFloat64(),
		Description: tx.Description,
		Type:        string(tx.Kind),
		Date:        tx.Date,
		UserID:      tx.OwnerID,
		CategoryID:  tx.CategoryID,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
	if tx.Category != nil {
		resp.Category = &categoryRef{ID: tx.Category.ID, Name: tx.Category.Name, CreatedAt: tx.Category.CreatedAt, UpdatedAt: tx.Category.UpdatedAt}
	}
	return resp
}

// Create records an income or expense for the caller.
func (h *Handler) Create(c *fiber.Ctx, who auth.Identity) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody()
	}

	var errs validation.Errors
	in := CreateInput{}
	if req.Amount == nil {
		errs.Add("amount", "Amount is required")
	} else {
		in.Amount = *req.Amount
		checkAmount(&errs, in.Amount)
	}
	if req.Description == nil {
		errs.Add("description", "Description is required")
	} else {
		in.Description = *req.Description
		checkDescription(&errs, in.Description)
	}
	if req.Type == nil {
		errs.Add("type", "Type is required")
	} else {
		in.Kind = ledger.Kind(*req.Type)
		checkKind(&errs, in.Kind)
	}
	if req.Date != nil {
		if d, ok := validation.ParseDate(*req.Date); ok {
			in.Date = &d
		} else {
			errs.Add("date", "Date must be in ISO format")
		}
	}
	if req.CategoryID != nil {
		if *req.CategoryID <= 0 {
			errs.Add("categoryId", "Category ID must be a positive integer")
		} else {
			in.CategoryID = req.CategoryID
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	tx, err := h.service.Create(c.UserContext(), who, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Expense created successfully",
		"expense": toResponse(tx),
	})
}

// List returns the caller's transactions, optionally filtered.
func (h *Handler) List(c *fiber.Ctx, who auth.Identity) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}
	txs, err := h.service.List(c.UserContext(), who, filter)
	if err != nil {
		return err
	}
	out := make([]expenseResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	return c.JSON(fiber.Map{"count": len(out), "expenses": out})
}

// Get returns one of the caller's transactions.
func (h *Handler) Get(c *fiber.Ctx, who auth.Identity) error {
	id, ok := transactionID(c)
	if !ok {
		return errNotFound()
	}
	tx, err := h.service.Get(c.UserContext(), who, id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"expense": toResponse(tx)})
}

// Update applies a partial update to one of the caller's transactions.
func (h *Handler) Update(c *fiber.Ctx, who auth.Identity) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody()
	}

	p := ledger.TransactionPatch{
		Amount:      req.Amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	}
	if req.Type.Present {
		p.Kind = patch.Field[ledger.Kind]{Present: true, Null: req.Type.Null, Value: ledger.Kind(req.Type.Value)}
	}
	var errs validation.Errors
	if req.Date.Present {
		if req.Date.Null {
			p.Date = patch.Null[time.Time]()
		} else if d, ok := validation.ParseDate(req.Date.Value); ok {
			p.Date = patch.Set(d)
		} else {
			errs.Add("date", "Date must be in ISO format")
			p.Date = patch.Set(time.Time{})
		}
	}
	if err := ValidatePatch(p); err != nil {
		var more validation.Errors
		if errors.As(err, &more) {
			errs = mergeErrors(errs, more)
		}
	}
	if err := errs.Err(); err != nil {
		return err
	}

	id, ok := transactionID(c)
	if !ok {
		return errNotFound()
	}
	tx, err := h.service.Update(c.UserContext(), who, id, p)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{
		"message": "Expense updated successfully",
		"expense": toResponse(tx),
	})
}

// Delete removes one of the caller's transactions.
func (h *Handler) Delete(c *fiber.Ctx, who auth.Identity) error {
	id, ok := transactionID(c)
	if !ok {
		return errNotFound()
	}
	if err := h.service.Delete(c.UserContext(), who, id); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"message": "Expense deleted successfully"})
}

func parseListFilter(c *fiber.Ctx) (ListFilter, error) {
	var (
		filter ListFilter
		errs   validation.Errors
	)
	if v := c.Query("type"); v != "" {
		filter.Kind = ledger.Kind(v)
		if !filter.Kind.Valid() {
			errs.Add("type", `Type must be either "income" or "expense"`)
		}
	}
	if v := c.Query("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			errs.Add("categoryId", "Category ID must be a positive integer")
		} else {
			filter.CategoryID = &id
		}
	}
	if v := c.Query("startDate"); v != "" {
		if d, ok := validation.ParseDate(v); ok {
			filter.From = &d
		} else {
			errs.Add("startDate", "Start date must be in ISO format")
		}
	}
	if v := c.Query("endDate"); v != "" {
		if d, ok := validation.ParseDate(v); ok {
			filter.To = &d
		} else {
			errs.Add("endDate", "End date must be in ISO format")
		}
	}
	return filter, errs.Err()
}

func transactionID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func mapError(err error) error {
	if errors.Is(err, ledger.ErrTransactionNotFound) {
		return errNotFound()
	}
	return err
}

func errNotFound() error {
	return fiber.NewError(http.StatusNotFound, "Expense not found.")
}

func malformedBody() error {
	return validation.Errors{{Field: "body", Message: "Request body must be a JSON object with correctly typed fields"}}
}

func mergeErrors(a, b validation.Errors) validation.Errors {
	seen := make(map[string]bool, len(a))
	for _, fe := range a {
		seen[fe.Field] = true
	}
	for _, fe := range b {
		if !seen[fe.Field] {
			a = append(a, fe)
		}
	}
	return a
}
