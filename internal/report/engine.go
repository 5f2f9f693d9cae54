// Package report aggregates a user's transactions into monthly and
// per-category summaries. Monthly and ByCategory are pure: they never
// fetch or filter by owner, so callers must pass an already scoped set.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/expense-pilot/expense_pilot/internal/ledger"
)

const (
	uncategorizedLabel = "Uncategorized"
	openStartLabel     = "All time"
	openEndLabel       = "Present"
)

var hundred = decimal.NewFromInt(100)

// Money is a full precision amount rendered as a JSON number rounded
// half-up to two decimals.
type Money struct {
	d decimal.Decimal
}

// Decimal returns the amount rounded to two decimals.
func (m Money) Decimal() decimal.Decimal {
	return m.d.Round(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.Round(2).String()), nil
}

func money(d decimal.Decimal) Money { return Money{d: d} }

// Period is a calendar month and its inclusive time window.
type Period struct {
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the window from the first instant of the month to the
// last day at 23:59:59, in loc.
func MonthPeriod(year int, month time.Month, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := time.Date(year, month+1, 0, 23, 59, 59, 0, loc)
	return Period{Year: year, Month: month, Start: start, End: end}
}

type PeriodView struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	MonthName string    `json:"monthName"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type MonthlySummary struct {
	TotalIncome      Money `json:"totalIncome"`
	TotalExpenses    Money `json:"totalExpenses"`
	NetSavings       Money `json:"netSavings"`
	TransactionCount int   `json:"transactionCount"`
}

type CategoryTotal struct {
	Category   string `json:"category"`
	CategoryID int64  `json:"categoryId"`
	Total      Money  `json:"total"`
	Count      int    `json:"count"`
}

// MonthlyReport is the income/expense summary of one month.
type MonthlyReport struct {
	Period             PeriodView      `json:"period"`
	Summary            MonthlySummary  `json:"summary"`
	ExpensesByCategory []CategoryTotal `json:"expensesByCategory"`
	Uncategorized      Money           `json:"uncategorized"`
}

// Monthly summarizes txs, which must already be limited to period.
func Monthly(period Period, txs []ledger.Transaction) MonthlyReport {
	var income, expenses, uncategorized decimal.Decimal
	var groups []*CategoryTotal
	sums := map[int64]decimal.Decimal{}
	index := map[int64]*CategoryTotal{}

	for _, tx := range txs {
		switch tx.Kind {
		case ledger.KindIncome:
			income = income.Add(tx.Amount)
		case ledger.KindExpense:
			expenses = expenses.Add(tx.Amount)
			if tx.CategoryID == nil {
				uncategorized = uncategorized.Add(tx.Amount)
				continue
			}
			id := *tx.CategoryID
			g, ok := index[id]
			if !ok {
				g = &CategoryTotal{Category: categoryName(tx), CategoryID: id}
				index[id] = g
				groups = append(groups, g)
			}
			sums[id] = sums[id].Add(tx.Amount)
			g.Count++
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return sums[groups[i].CategoryID].GreaterThan(sums[groups[j].CategoryID])
	})
	breakdown := make([]CategoryTotal, 0, len(groups))
	for _, g := range groups {
		g.Total = money(sums[g.CategoryID])
		breakdown = append(breakdown, *g)
	}

	return MonthlyReport{
		Period: PeriodView{
			Year:      period.Year,
			Month:     int(period.Month),
			MonthName: period.Month.String(),
			StartDate: period.Start,
			EndDate:   period.End,
		},
		Summary: MonthlySummary{
			TotalIncome:      money(income),
			TotalExpenses:    money(expenses),
			NetSavings:       money(income.Sub(expenses)),
			TransactionCount: len(txs),
		},
		ExpensesByCategory: breakdown,
		Uncategorized:      money(uncategorized),
	}
}

// Range is an optional, inclusive date window. Nil bounds are open.
// FromText and ToText keep the bounds as the caller wrote them; the report
// echoes those rather than the parsed instants.
type Range struct {
	From     *time.Time
	To       *time.Time
	FromText string
	ToText   string
}

type RangeView struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type CategorySummary struct {
	TotalExpenses    Money `json:"totalExpenses"`
	CategoryCount    int   `json:"categoryCount"`
	TransactionCount int   `json:"transactionCount"`
}

type ExpenseLine struct {
	ID          int64     `json:"id"`
	Amount      Money     `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

type CategoryBreakdown struct {
	Category      string        `json:"category"`
	CategoryID    *int64        `json:"categoryId"`
	TotalAmount   Money         `json:"totalAmount"`
	Count         int           `json:"count"`
	Percentage    Money         `json:"percentage"`
	AverageAmount Money         `json:"averageAmount"`
	Expenses      []ExpenseLine `json:"expenses"`
}

// CategoryReport breaks expenses down by category.
type CategoryReport struct {
	Period     RangeView           `json:"period"`
	Summary    CategorySummary     `json:"summary"`
	Categories []CategoryBreakdown `json:"categories"`
}

// ByCategory groups the expense-kind transactions of txs by category.
// Uncategorized expenses form their own group with a nil CategoryID.
func ByCategory(r Range, txs []ledger.Transaction) CategoryReport {
	type bucket struct {
		out *CategoryBreakdown
		sum decimal.Decimal
	}
	var (
		grand   decimal.Decimal
		count   int
		buckets []*bucket
	)
	byID := map[int64]*bucket{}
	var none *bucket

	for _, tx := range txs {
		if tx.Kind != ledger.KindExpense {
			continue
		}
		count++
		grand = grand.Add(tx.Amount)

		var b *bucket
		if tx.CategoryID == nil {
			if none == nil {
				none = &bucket{out: &CategoryBreakdown{Category: uncategorizedLabel}}
				buckets = append(buckets, none)
			}
			b = none
		} else {
			id := *tx.CategoryID
			if b = byID[id]; b == nil {
				b = &bucket{out: &CategoryBreakdown{Category: categoryName(tx), CategoryID: &id}}
				byID[id] = b
				buckets = append(buckets, b)
			}
		}
		b.sum = b.sum.Add(tx.Amount)
		b.out.Count++
		b.out.Expenses = append(b.out.Expenses, ExpenseLine{
			ID:          tx.ID,
			Amount:      money(tx.Amount),
			Description: tx.Description,
			Date:        tx.Date,
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].sum.GreaterThan(buckets[j].sum)
	})

	categories := make([]CategoryBreakdown, 0, len(buckets))
	for _, b := range buckets {
		g := *b.out
		g.TotalAmount = money(b.sum)
		g.AverageAmount = money(b.sum.Div(decimal.NewFromInt(int64(g.Count))))
		if grand.IsPositive() {
			g.Percentage = money(b.sum.Mul(hundred).Div(grand))
		}
		categories = append(categories, g)
	}

	view := RangeView{
		StartDate: boundLabel(r.From, r.FromText, openStartLabel),
		EndDate:   boundLabel(r.To, r.ToText, openEndLabel),
	}

	return CategoryReport{
		Period: view,
		Summary: CategorySummary{
			TotalExpenses:    money(grand),
			CategoryCount:    len(categories),
			TransactionCount: count,
		},
		Categories: categories,
	}
}

func categoryName(tx ledger.Transaction) string {
	if tx.Category != nil {
		return tx.Category.Name
	}
	return ""
}

func boundLabel(bound *time.Time, text, open string) string {
	switch {
	case bound == nil:
		return open
	case text != "":
		return text
	default:
		return bound.Format(time.RFC3339Nano)
	}
}
