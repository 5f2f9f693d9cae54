package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expense-pilot/expense_pilot/internal/patch"
)

func newTx(owner string, amount string, kind Kind, date time.Time, categoryID *int64) Transaction {
	return Transaction{
		Amount:      decimal.RequireFromString(amount),
		Description: "entry",
		Kind:        kind,
		Date:        date,
		OwnerID:     owner,
		CategoryID:  categoryID,
	}
}

func TestInMemoryTransactionsAreOwnerScoped(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	tx, err := l.CreateTransaction(ctx, newTx("alice", "10.00", KindExpense, time.Now(), nil))
	require.NoError(t, err)

	_, err = l.GetTransaction(ctx, "bob", tx.ID)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	_, err = l.UpdateTransaction(ctx, "bob", tx.ID, TransactionPatch{Description: patch.Set("hijack")})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	assert.ErrorIs(t, l.DeleteTransaction(ctx, "bob", tx.ID), ErrTransactionNotFound)

	bobs, err := l.ListTransactions(ctx, TransactionFilter{OwnerID: "bob"})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	got, err := l.GetTransaction(ctx, "alice", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "entry", got.Description)
}

func TestInMemoryListFiltersAndOrder(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	food, err := l.CreateCategory(ctx, "Food")
	require.NoError(t, err)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	_, _ = l.CreateTransaction(ctx, newTx("alice", "1", KindExpense, base.AddDate(0, 0, -5), &food.ID))
	_, _ = l.CreateTransaction(ctx, newTx("alice", "2", KindIncome, base, nil))
	_, _ = l.CreateTransaction(ctx, newTx("alice", "3", KindExpense, base.AddDate(0, 0, 5), nil))

	all, err := l.ListTransactions(ctx, TransactionFilter{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[0].Amount.String())
	assert.Equal(t, "1", all[2].Amount.String())
	require.NotNil(t, all[2].Category)
	assert.Equal(t, "Food", all[2].Category.Name)

	expenses, err := l.ListTransactions(ctx, TransactionFilter{OwnerID: "alice", Kind: KindExpense})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)

	byCat, err := l.ListTransactions(ctx, TransactionFilter{OwnerID: "alice", CategoryID: &food.ID})
	require.NoError(t, err)
	assert.Len(t, byCat, 1)

	from, to := base, base.AddDate(0, 0, 5)
	window, err := l.ListTransactions(ctx, TransactionFilter{OwnerID: "alice", From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, window, 2, "bounds are inclusive")
}

func TestInMemoryUpdateClearsCategoryOnNull(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	food, _ := l.CreateCategory(ctx, "Food")
	tx, err := l.CreateTransaction(ctx, newTx("alice", "5", KindExpense, time.Now(), &food.ID))
	require.NoError(t, err)

	updated, err := l.UpdateTransaction(ctx, "alice", tx.ID, TransactionPatch{Amount: patch.Set(decimal.NewFromInt(7))})
	require.NoError(t, err)
	require.NotNil(t, updated.CategoryID, "absent field leaves category unchanged")
	assert.Equal(t, "7", updated.Amount.String())

	cleared, err := l.UpdateTransaction(ctx, "alice", tx.ID, TransactionPatch{CategoryID: patch.Null[int64]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.CategoryID)
	assert.Nil(t, cleared.Category)
}

func TestInMemoryRejectsDanglingCategory(t *testing.T) {
	l := NewInMemory()
	missing := int64(99)
	_, err := l.CreateTransaction(context.Background(), newTx("alice", "5", KindExpense, time.Now(), &missing))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCategoryNotFound)
}

func TestInMemoryCategoryNames(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	groceries, err := l.CreateCategory(ctx, "Groceries")
	require.NoError(t, err)
	_, err = l.CreateCategory(ctx, "Groceries")
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	rent, err := l.CreateCategory(ctx, "Rent")
	require.NoError(t, err)
	_, err = l.RenameCategory(ctx, rent.ID, "Groceries")
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	same, err := l.RenameCategory(ctx, groceries.ID, "Groceries")
	require.NoError(t, err)
	assert.Equal(t, groceries.ID, same.ID)

	_, err = l.RenameCategory(ctx, 404, "Anything")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestInMemoryDeleteCategoryPolicies(t *testing.T) {
	ctx := context.Background()
	setup := func(t *testing.T) (Ledger, Category, Transaction) {
		l := NewInMemory()
		cat, err := l.CreateCategory(ctx, "Travel")
		require.NoError(t, err)
		tx, err := l.CreateTransaction(ctx, newTx("alice", "40", KindExpense, time.Now(), &cat.ID))
		require.NoError(t, err)
		return l, cat, tx
	}

	t.Run("restrict", func(t *testing.T) {
		l, cat, _ := setup(t)
		assert.ErrorIs(t, l.DeleteCategory(ctx, cat.ID, DeleteRestrict), ErrCategoryInUse)
		_, err := l.GetCategory(ctx, cat.ID)
		assert.NoError(t, err)
	})

	t.Run("nullify", func(t *testing.T) {
		l, cat, tx := setup(t)
		require.NoError(t, l.DeleteCategory(ctx, cat.ID, DeleteNullify))
		got, err := l.GetTransaction(ctx, "alice", tx.ID)
		require.NoError(t, err)
		assert.Nil(t, got.CategoryID)
	})

	t.Run("cascade", func(t *testing.T) {
		l, cat, tx := setup(t)
		require.NoError(t, l.DeleteCategory(ctx, cat.ID, DeleteCascade))
		_, err := l.GetTransaction(ctx, "alice", tx.ID)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		l := NewInMemory()
		assert.ErrorIs(t, l.DeleteCategory(ctx, 1, DeleteNullify), ErrCategoryNotFound)
	})
}

func TestParseDeletePolicy(t *testing.T) {
	p, err := ParseDeletePolicy("cascade")
	require.NoError(t, err)
	assert.Equal(t, DeleteCascade, p)

	_, err = ParseDeletePolicy("archive")
	assert.Error(t, err)
}
