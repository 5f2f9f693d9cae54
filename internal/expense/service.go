package expense

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/ledger"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

const maxDescriptionLength = 500

// maxAmount is the largest value a NUMERIC(14,2) column holds.
var maxAmount = decimal.RequireFromString("999999999999.99")

// Service implements ownership-scoped CRUD over ledger transactions. Every
// operation runs on behalf of the identity it receives.
type Service struct {
	ledger ledger.Ledger
	now    func() time.Time
}

// NewService builds a transaction service instance.
func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l, now: time.Now}
}

// CreateInput captures the data required to record a transaction. A nil Date
// means "now"; a nil CategoryID leaves the transaction uncategorized.
type CreateInput struct {
	Amount      decimal.Decimal
	Description string
	Kind        ledger.Kind
	Date        *time.Time
	CategoryID  *int64
}

// ListFilter mirrors the query parameters of the list endpoint.
type ListFilter struct {
	Kind       ledger.Kind
	CategoryID *int64
	From       *time.Time
	To         *time.Time
}

// Create records a transaction owned by who.
func (s *Service) Create(ctx context.Context, who auth.Identity, in CreateInput) (ledger.Transaction, error) {
	var errs validation.Errors
	checkAmount(&errs, in.Amount)
	checkDescription(&errs, in.Description)
	checkKind(&errs, in.Kind)
	if err := errs.Err(); err != nil {
		return ledger.Transaction{}, err
	}

	date := s.now().UTC()
	if in.Date != nil {
		date = in.Date.UTC()
	}

	return s.ledger.CreateTransaction(ctx, ledger.Transaction{
		Amount:      in.Amount.Round(2),
		Description: in.Description,
		Kind:        in.Kind,
		Date:        date,
		OwnerID:     who.UserID,
		CategoryID:  in.CategoryID,
	})
}

// List returns the caller's transactions matching filter, newest first.
func (s *Service) List(ctx context.Context, who auth.Identity, filter ListFilter) ([]ledger.Transaction, error) {
	return s.ledger.ListTransactions(ctx, ledger.TransactionFilter{
		OwnerID:    who.UserID,
		Kind:       filter.Kind,
		CategoryID: filter.CategoryID,
		From:       filter.From,
		To:         filter.To,
	})
}

// Get fetches one of the caller's transactions.
func (s *Service) Get(ctx context.Context, who auth.Identity, id int64) (ledger.Transaction, error) {
	return s.ledger.GetTransaction(ctx, who.UserID, id)
}

// Update applies a partial update to one of the caller's transactions.
// Fields absent from p are left unchanged.
func (s *Service) Update(ctx context.Context, who auth.Identity, id int64, p ledger.TransactionPatch) (ledger.Transaction, error) {
	if err := ValidatePatch(p); err != nil {
		return ledger.Transaction{}, err
	}
	if p.Amount.HasValue() {
		p.Amount.Value = p.Amount.Value.Round(2)
	}
	return s.ledger.UpdateTransaction(ctx, who.UserID, id, p)
}

// Delete removes one of the caller's transactions.
func (s *Service) Delete(ctx context.Context, who auth.Identity, id int64) error {
	return s.ledger.DeleteTransaction(ctx, who.UserID, id)
}

// ValidatePatch checks the supplied fields of p and requires at least one.
func ValidatePatch(p ledger.TransactionPatch) error {
	var errs validation.Errors
	if p.IsEmpty() {
		errs.Add("body", "At least one field must be provided for update")
		return errs
	}
	if p.Amount.Present {
		if p.Amount.Null {
			errs.Add("amount", "Amount must be a number")
		} else {
			checkAmount(&errs, p.Amount.Value)
		}
	}
	if p.Description.Present {
		if p.Description.Null || p.Description.Value == "" {
			errs.Add("description", "Description cannot be empty")
		} else {
			checkDescription(&errs, p.Description.Value)
		}
	}
	if p.Kind.Present {
		checkKind(&errs, p.Kind.Value)
	}
	if p.Date.Present && p.Date.Null {
		errs.Add("date", "Date must be in ISO format")
	}
	if p.CategoryID.HasValue() && p.CategoryID.Value <= 0 {
		errs.Add("categoryId", "Category ID must be a positive integer")
	}
	return errs.Err()
}

func checkAmount(errs *validation.Errors, amount decimal.Decimal) {
	rounded := amount.Round(2)
	switch {
	case !rounded.IsPositive():
		errs.Add("amount", "Amount must be positive")
	case rounded.GreaterThan(maxAmount):
		errs.Add("amount", "Amount must not exceed 999999999999.99")
	}
}

func checkDescription(errs *validation.Errors, description string) {
	switch {
	case description == "":
		errs.Add("description", "Description is required")
	case utf8.RuneCountInString(description) > maxDescriptionLength:
		errs.Add("description", "Description must not exceed 500 characters")
	}
}

func checkKind(errs *validation.Errors, kind ledger.Kind) {
	if !kind.Valid() {
		errs.Add("type", `Type must be either "income" or "expense"`)
	}
}
