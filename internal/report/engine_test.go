package report

import (
	"encoding/json"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expense-pilot/expense_pilot/internal/ledger"
)

var (
	groceries = &ledger.Category{ID: 1, Name: "Groceries"}
	rent      = &ledger.Category{ID: 2, Name: "Rent"}
	fun       = &ledger.Category{ID: 3, Name: "Fun"}
)

func tx(id int64, amount string, kind ledger.Kind, cat *ledger.Category) ledger.Transaction {
	t := ledger.Transaction{
		ID:          id,
		Amount:      decimal.RequireFromString(amount),
		Description: "entry",
		Kind:        kind,
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		OwnerID:     "alice",
	}
	if cat != nil {
		catID := cat.ID
		t.CategoryID = &catID
		t.Category = cat
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthPeriod(t *testing.T) {
	p := MonthPeriod(2024, time.February, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), p.End)

	dec31 := MonthPeriod(2025, time.December, time.UTC)
	assert.Equal(t, time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC), dec31.End)

	rome, err := time.LoadLocation("Europe/Rome")
	require.NoError(t, err)
	local := MonthPeriod(2025, time.July, rome)
	assert.Equal(t, time.Date(2025, 6, 30, 22, 0, 0, 0, time.UTC), local.Start.UTC())
}

func TestMonthlyIncomeAndExpense(t *testing.T) {
	r := Monthly(MonthPeriod(2025, time.March, time.UTC), []ledger.Transaction{
		tx(1, "100", ledger.KindIncome, nil),
		tx(2, "50", ledger.KindExpense, nil),
	})

	assert.True(t, r.Summary.TotalIncome.Decimal().Equal(dec("100")))
	assert.True(t, r.Summary.TotalExpenses.Decimal().Equal(dec("50")))
	assert.True(t, r.Summary.NetSavings.Decimal().Equal(dec("50")))
	assert.Equal(t, 2, r.Summary.TransactionCount)
	assert.True(t, r.Uncategorized.Decimal().Equal(dec("50")))
	assert.Empty(t, r.ExpensesByCategory)
	assert.Equal(t, "March", r.Period.MonthName)
	assert.Equal(t, 3, r.Period.Month)
}

func TestMonthlyGroupsExpensesByCategory(t *testing.T) {
	r := Monthly(MonthPeriod(2025, time.March, time.UTC), []ledger.Transaction{
		tx(1, "20", ledger.KindExpense, fun),
		tx(2, "700", ledger.KindExpense, rent),
		tx(3, "45.10", ledger.KindExpense, groceries),
		tx(4, "9.90", ledger.KindExpense, groceries),
		tx(5, "300", ledger.KindIncome, groceries),
		tx(6, "5", ledger.KindExpense, nil),
	})

	require.Len(t, r.ExpensesByCategory, 3)
	assert.Equal(t, "Rent", r.ExpensesByCategory[0].Category)
	assert.Equal(t, "Groceries", r.ExpensesByCategory[1].Category)
	assert.True(t, r.ExpensesByCategory[1].Total.Decimal().Equal(dec("55")))
	assert.Equal(t, 2, r.ExpensesByCategory[1].Count)
	assert.Equal(t, "Fun", r.ExpensesByCategory[2].Category)
	assert.True(t, r.Uncategorized.Decimal().Equal(dec("5")))
	assert.True(t, r.Summary.NetSavings.Decimal().Equal(dec("300").Sub(dec("780"))))
}

func TestMonthlyNetSavingsIsExactDifference(t *testing.T) {
	txs := []ledger.Transaction{
		tx(1, "0.10", ledger.KindIncome, nil),
		tx(2, "0.20", ledger.KindIncome, nil),
		tx(3, "0.30", ledger.KindExpense, nil),
		tx(4, "1234.56", ledger.KindIncome, nil),
		tx(5, "99.99", ledger.KindExpense, groceries),
	}
	s := Monthly(MonthPeriod(2025, time.March, time.UTC), txs).Summary
	assert.True(t, s.NetSavings.Decimal().Equal(s.TotalIncome.Decimal().Sub(s.TotalExpenses.Decimal())))
}

func TestMonthlyTiesKeepInputOrder(t *testing.T) {
	txs := []ledger.Transaction{
		tx(1, "10", ledger.KindExpense, fun),
		tx(2, "10", ledger.KindExpense, rent),
		tx(3, "10", ledger.KindExpense, groceries),
	}
	first := Monthly(MonthPeriod(2025, time.March, time.UTC), txs)
	second := Monthly(MonthPeriod(2025, time.March, time.UTC), txs)

	names := []string{}
	for _, g := range first.ExpensesByCategory {
		names = append(names, g.Category)
	}
	assert.Equal(t, []string{"Fun", "Rent", "Groceries"}, names)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestByCategoryGroceriesScenario(t *testing.T) {
	r := ByCategory(Range{}, []ledger.Transaction{
		tx(1, "50", ledger.KindExpense, groceries),
		tx(2, "30", ledger.KindExpense, groceries),
	})

	require.Len(t, r.Categories, 1)
	g := r.Categories[0]
	assert.Equal(t, "Groceries", g.Category)
	require.NotNil(t, g.CategoryID)
	assert.Equal(t, int64(1), *g.CategoryID)
	assert.True(t, g.TotalAmount.Decimal().Equal(dec("80")))
	assert.Equal(t, 2, g.Count)
	assert.True(t, g.Percentage.Decimal().Equal(dec("100")))
	assert.True(t, g.AverageAmount.Decimal().Equal(dec("40")))
	assert.Len(t, g.Expenses, 2)
	assert.Equal(t, "All time", r.Period.StartDate)
	assert.Equal(t, "Present", r.Period.EndDate)
}

func TestByCategoryTotalsAndPercentages(t *testing.T) {
	r := ByCategory(Range{}, []ledger.Transaction{
		tx(1, "10", ledger.KindExpense, groceries),
		tx(2, "10", ledger.KindExpense, rent),
		tx(3, "10", ledger.KindExpense, nil),
		tx(4, "1000", ledger.KindIncome, nil),
	})

	require.Len(t, r.Categories, 3)
	assert.Equal(t, 3, r.Summary.TransactionCount)
	assert.Equal(t, 3, r.Summary.CategoryCount)

	sum, pct := decimal.Zero, decimal.Zero
	for _, g := range r.Categories {
		sum = sum.Add(g.TotalAmount.Decimal())
		pct = pct.Add(g.Percentage.Decimal())
		assert.True(t, g.Percentage.Decimal().Equal(dec("33.33")))
	}
	assert.True(t, sum.Equal(r.Summary.TotalExpenses.Decimal()))
	assert.True(t, pct.Sub(hundred).Abs().LessThanOrEqual(dec("0.05")))

	assert.Equal(t, "Uncategorized", r.Categories[2].Category)
	assert.Nil(t, r.Categories[2].CategoryID)
}

func TestByCategoryUncategorizedDoesNotMergeWithNamesake(t *testing.T) {
	named := &ledger.Category{ID: 9, Name: "Uncategorized"}
	r := ByCategory(Range{}, []ledger.Transaction{
		tx(1, "10", ledger.KindExpense, named),
		tx(2, "5", ledger.KindExpense, nil),
	})
	require.Len(t, r.Categories, 2)
	require.NotNil(t, r.Categories[0].CategoryID)
	assert.Nil(t, r.Categories[1].CategoryID)
}

func TestByCategoryEmpty(t *testing.T) {
	r := ByCategory(Range{}, nil)
	assert.Empty(t, r.Categories)
	assert.True(t, r.Summary.TotalExpenses.Decimal().IsZero())

	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"period": {"startDate": "All time", "endDate": "Present"},
		"summary": {"totalExpenses": 0, "categoryCount": 0, "transactionCount": 0},
		"categories": []
	}`, string(out))
}

func TestByCategoryEchoesBoundsAsWritten(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	r := ByCategory(Range{From: &from, To: &to, FromText: "2025-03-01", ToText: "2025-03-31"}, nil)
	assert.Equal(t, "2025-03-01", r.Period.StartDate)
	assert.Equal(t, "2025-03-31", r.Period.EndDate)

	r = ByCategory(Range{From: &from}, nil)
	assert.Equal(t, "2025-03-01T00:00:00Z", r.Period.StartDate)
	assert.Equal(t, "Present", r.Period.EndDate)
}

func TestMoneyRendersRoundedNumber(t *testing.T) {
	out, err := json.Marshal(money(dec("12.345")))
	require.NoError(t, err)
	assert.Equal(t, "12.35", string(out))

	out, err = json.Marshal(money(dec("40")))
	require.NoError(t, err)
	assert.Equal(t, "40", string(out))
}
