package report

import (
	"context"
	"time"

	"github.com/expense-pilot/expense_pilot/internal/auth"
	"github.com/expense-pilot/expense_pilot/internal/ledger"
)

// Service fetches the caller's transactions and feeds them to the report
// engine. It is the only place reports are scoped to an owner.
type Service struct {
	ledger   ledger.Ledger
	location *time.Location
	now      func() time.Time
}

// NewService builds a report service computing month boundaries in loc.
func NewService(l ledger.Ledger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: l, location: loc, now: time.Now}
}

// Monthly reports on the given month. Zero year or month default to the
// current one in the service location.
func (s *Service) Monthly(ctx context.Context, who auth.Identity, year int, month time.Month) (MonthlyReport, error) {
	now := s.now().In(s.location)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}
	period := MonthPeriod(year, month, s.location)

	txs, err := s.ledger.ListTransactions(ctx, ledger.TransactionFilter{
		OwnerID: who.UserID,
		From:    &period.Start,
		To:      &period.End,
	})
	if err != nil {
		return MonthlyReport{}, err
	}
	return Monthly(period, txs), nil
}

// ByCategory reports the caller's expenses inside r grouped by category.
func (s *Service) ByCategory(ctx context.Context, who auth.Identity, r Range) (CategoryReport, error) {
	txs, err := s.ledger.ListTransactions(ctx, ledger.TransactionFilter{
		OwnerID: who.UserID,
		Kind:    ledger.KindExpense,
		From:    r.From,
		To:      r.To,
	})
	if err != nil {
		return CategoryReport{}, err
	}
	return ByCategory(r, txs), nil
}
