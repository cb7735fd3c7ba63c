package budget

import (
	"fmt"
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// Input holds everything needed to evaluate one account on one day.
type Input struct {
	Period             Period
	Today              time.Time
	CurrentDailyBudget decimal.Decimal
	TrailingAverage    decimal.Decimal
}

// Evaluation is the derived state of a budget period for one day.
type Evaluation struct {
	Cycle            Cycle
	Bounds           DateRange
	TotalDays        int
	RemainingDays    int
	RemainingBudget  decimal.Decimal
	IdealDailyBudget decimal.Decimal
	Current          model.Recommendation
	Average          model.Recommendation
}

// NeedsAdjustment reports whether either basis recommends a change.
func (e Evaluation) NeedsAdjustment() bool {
	return e.Current.Actionable() || e.Average.Actionable()
}

// Evaluate resolves the period, computes the ideal daily budget and
// classifies both the configured budget and the trailing average.
func Evaluate(in Input) (Evaluation, error) {
	if err := in.Period.Validate(); err != nil {
		return Evaluation{}, fmt.Errorf("evaluating period: %w", err)
	}

	today := Day(in.Today)
	custom := in.Period.activeRange()
	remaining := RemainingDays(today, custom)
	ideal := IdealDailyBudget(in.Period.TotalBudget, in.Period.SpentToDate, remaining)

	return Evaluation{
		Cycle:            in.Period.Cycle,
		Bounds:           Bounds(today, custom),
		TotalDays:        TotalDays(today, custom),
		RemainingDays:    remaining,
		RemainingBudget:  RemainingBudget(in.Period.TotalBudget, in.Period.SpentToDate),
		IdealDailyBudget: ideal,
		Current:          Recommend(model.BasisCurrentConfigured, in.CurrentDailyBudget, ideal),
		Average:          Recommend(model.BasisTrailingAverage, in.TrailingAverage, ideal),
	}, nil
}
