package adsapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/budget"
	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// TrailingDays is the number of full days averaged for the trailing basis.
const TrailingDays = 5

// AccountInfo describes an ad account as the platform reports it.
type AccountInfo struct {
	ID       string
	Name     string
	Currency string
}

// DailySpend is the spend of one account on one civil date.
type DailySpend struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Validate rejects rows the evaluation cannot use.
func (d DailySpend) Validate() error {
	if d.Date.IsZero() {
		return errors.New("daily spend without a date")
	}
	if d.Amount.IsNegative() {
		return fmt.Errorf("negative spend %s on %s", d.Amount, d.Date.Format(budget.DateFormat))
	}
	return nil
}

// Source is one ad platform.
type Source interface {
	Platform() model.Platform
	FetchAccount(ctx context.Context, accountID string) (AccountInfo, error)
	// FetchDailySpend returns per-day spend inside window, bounds included.
	// Days without spend may be omitted.
	FetchDailySpend(ctx context.Context, accountID string, window budget.DateRange) ([]DailySpend, error)
	// FetchDailyBudget returns the sum of the daily budgets of everything
	// currently delivering.
	FetchDailyBudget(ctx context.Context, accountID string) (decimal.Decimal, error)
}

// AccountSnapshot is the live data one review needs.
type AccountSnapshot struct {
	AccountID          string
	SpentInWindow      decimal.Decimal
	CurrentDailyBudget decimal.Decimal
	TrailingAverage    decimal.Decimal
	Days               []DailySpend
	FetchedAt          time.Time
}

// Snapshot fetches spend and configured budget for accountID. Spend is
// summed from window.Start through today (or window.End when earlier); the
// trailing average covers the TrailingDays full days before today, with
// missing days counted as zero.
func Snapshot(ctx context.Context, src Source, accountID string, window budget.DateRange, today time.Time) (*AccountSnapshot, error) {
	today = budget.Day(today)
	trail := budget.DateRange{
		Start: today.AddDate(0, 0, -TrailingDays),
		End:   today.AddDate(0, 0, -1),
	}

	spendEnd := window.End
	if budget.DaysBetween(today, spendEnd) > 0 {
		spendEnd = today
	}
	fetch := budget.DateRange{Start: window.Start, End: spendEnd}
	if budget.DaysBetween(trail.Start, fetch.Start) > 0 {
		fetch.Start = trail.Start
	}
	if budget.DaysBetween(fetch.End, trail.End) > 0 {
		fetch.End = trail.End
	}

	days, err := src.FetchDailySpend(ctx, accountID, fetch)
	if err != nil {
		return nil, fmt.Errorf("fetching %s spend: %w", src.Platform(), err)
	}
	current, err := src.FetchDailyBudget(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("fetching %s daily budget: %w", src.Platform(), err)
	}

	spentRange := budget.DateRange{Start: window.Start, End: spendEnd}
	snap := &AccountSnapshot{
		AccountID:          accountID,
		CurrentDailyBudget: current,
		Days:               days,
		FetchedAt:          time.Now(),
	}
	var trailing decimal.Decimal
	for _, d := range days {
		if spentRange.Contains(d.Date) {
			snap.SpentInWindow = snap.SpentInWindow.Add(d.Amount)
		}
		if trail.Contains(d.Date) {
			trailing = trailing.Add(d.Amount)
		}
	}
	snap.TrailingAverage = trailing.Div(decimal.NewFromInt(TrailingDays)).Round(2)
	return snap, nil
}

func parseSpendDate(s string) (time.Time, error) {
	return time.ParseInLocation(budget.DateFormat, s, time.UTC)
}
