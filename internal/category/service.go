package category

import (
	"context"
	"strings"

	"github.com/expense-pilot/expense_pilot/internal/ledger"
	"github.com/expense-pilot/expense_pilot/internal/validation"
)

// Service manages the shared category namespace.
type Service struct {
	ledger ledger.Ledger
	policy ledger.DeletePolicy
}

// NewService builds a category service. policy controls what happens to
// transactions that reference a deleted category.
func NewService(l ledger.Ledger, policy ledger.DeletePolicy) *Service {
	if policy == "" {
		policy = ledger.DeleteNullify
	}
	return &Service{ledger: l, policy: policy}
}

// Create adds a category. Names are trimmed and must be unique.
func (s *Service) Create(ctx context.Context, name string) (ledger.Category, error) {
	name, err := checkName(name)
	if err != nil {
		return ledger.Category{}, err
	}
	return s.ledger.CreateCategory(ctx, name)
}

// List returns every category with its transaction count, ordered by name.
func (s *Service) List(ctx context.Context) ([]ledger.CategorySummary, error) {
	return s.ledger.ListCategories(ctx)
}

// Get returns one category with its transaction count.
func (s *Service) Get(ctx context.Context, id int64) (ledger.CategorySummary, error) {
	return s.ledger.GetCategory(ctx, id)
}

// Rename changes the name of a category.
func (s *Service) Rename(ctx context.Context, id int64, name string) (ledger.Category, error) {
	name, err := checkName(name)
	if err != nil {
		return ledger.Category{}, err
	}
	return s.ledger.RenameCategory(ctx, id, name)
}

// Delete removes a category according to the configured policy.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.ledger.DeleteCategory(ctx, id, s.policy)
}

func checkName(name string) (string, error) {
	name = strings.TrimSpace(name)
	var errs validation.Errors
	errs.Length("name", name, 2, 50,
		"Category name is required",
		"Category name must be at least 2 characters long",
		"Category name must not exceed 50 characters")
	return name, errs.Err()
}
