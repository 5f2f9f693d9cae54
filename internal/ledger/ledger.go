package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-pilot/expense_pilot/internal/patch"
)

var (
	// ErrTransactionNotFound is returned when no transaction with the id exists
	// for the requesting owner. Records of other owners are indistinguishable
	// from missing ones.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrCategoryNotFound indicates the category id does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrDuplicateCategory indicates another category already uses the name.
	ErrDuplicateCategory = errors.New("category with this name already exists")

	// ErrCategoryInUse is returned by DeleteCategory under DeleteRestrict when
	// transactions still reference the category.
	ErrCategoryInUse = errors.New("category is referenced by transactions")
)

// Kind distinguishes money coming in from money going out.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// DeletePolicy decides what happens to transactions of a deleted category.
type DeletePolicy string

const (
	// DeleteNullify leaves referencing transactions uncategorized.
	DeleteNullify DeletePolicy = "nullify"
	// DeleteRestrict refuses to delete a referenced category.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteCascade deletes referencing transactions with the category.
	DeleteCascade DeletePolicy = "cascade"
)

// ParseDeletePolicy converts a configuration value into a DeletePolicy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case DeleteNullify, DeleteRestrict, DeleteCascade:
		return p, nil
	default:
		return "", fmt.Errorf("unknown category delete policy %q", s)
	}
}

// Category is a shared label for transactions.
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategorySummary is a category with the number of transactions using it.
type CategorySummary struct {
	Category
	TransactionCount int
}

// Transaction is one income or expense record owned by a user.
type Transaction struct {
	ID          int64
	Amount      decimal.Decimal
	Description string
	Kind        Kind
	Date        time.Time
	OwnerID     string
	CategoryID  *int64
	// Category is resolved on read; nil when uncategorized.
	Category  *Category
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionFilter narrows ListTransactions. OwnerID is mandatory; the
// remaining fields are optional and the date bounds are inclusive.
type TransactionFilter struct {
	OwnerID    string
	Kind       Kind
	CategoryID *int64
	From       *time.Time
	To         *time.Time
}

// TransactionPatch holds the fields of a partial update. A CategoryID that
// is present but null clears the category.
type TransactionPatch struct {
	Amount      patch.Field[decimal.Decimal]
	Description patch.Field[string]
	Kind        patch.Field[Kind]
	Date        patch.Field[time.Time]
	CategoryID  patch.Field[int64]
}

// IsEmpty reports whether no field was supplied.
func (p TransactionPatch) IsEmpty() bool {
	return !p.Amount.Present && !p.Description.Present && !p.Kind.Present && !p.Date.Present && !p.CategoryID.Present
}

// Ledger defines the contract implemented by storage backends (Postgres and
// in-memory). Every transaction operation is scoped to an owner.
type Ledger interface {
	Ping(ctx context.Context) error

	CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	GetTransaction(ctx context.Context, ownerID string, id int64) (Transaction, error)
	UpdateTransaction(ctx context.Context, ownerID string, id int64, p TransactionPatch) (Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID string, id int64) error

	CreateCategory(ctx context.Context, name string) (Category, error)
	ListCategories(ctx context.Context) ([]CategorySummary, error)
	GetCategory(ctx context.Context, id int64) (CategorySummary, error)
	RenameCategory(ctx context.Context, id int64, name string) (Category, error)
	DeleteCategory(ctx context.Context, id int64, policy DeletePolicy) error
}
