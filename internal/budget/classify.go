package budget

import (
	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// Both thresholds must be met before an adjustment is recommended.
var (
	// MinAbsoluteDifference is the smallest difference, in currency units, worth flagging.
	MinAbsoluteDifference = decimal.NewFromInt(5)
	// MinRelativeDifference is the smallest difference relative to the current value.
	MinRelativeDifference = decimal.RequireFromString("0.05")
)

// Adjustment is the outcome of comparing a current daily value to the ideal.
type Adjustment struct {
	NeedsAdjustment bool
	Difference      decimal.Decimal // ideal - current
	Direction       model.Direction
}

// ClassifyAdjustment compares currentDaily against idealDaily.
// A non-positive current value never needs adjustment: there is no
// meaningful relative deviation to report.
func ClassifyAdjustment(currentDaily, idealDaily decimal.Decimal) Adjustment {
	diff := idealDaily.Sub(currentDaily)

	adj := Adjustment{Difference: diff, Direction: model.DirectionNone}
	switch diff.Sign() {
	case 1:
		adj.Direction = model.DirectionIncrease
	case -1:
		adj.Direction = model.DirectionDecrease
	}

	if !currentDaily.IsPositive() {
		return adj
	}

	abs := diff.Abs()
	adj.NeedsAdjustment = abs.GreaterThanOrEqual(MinAbsoluteDifference) &&
		abs.GreaterThanOrEqual(currentDaily.Mul(MinRelativeDifference))
	return adj
}

// Recommend classifies one basis and turns it into a recommendation.
// Direction is None unless the adjustment clears both thresholds.
func Recommend(basis model.Basis, currentDaily, idealDaily decimal.Decimal) model.Recommendation {
	adj := ClassifyAdjustment(currentDaily, idealDaily)
	rec := model.Recommendation{
		Basis:     basis,
		Direction: model.DirectionNone,
		Magnitude: adj.Difference.Abs(),
	}
	if adj.NeedsAdjustment {
		rec.Direction = adj.Direction
	}
	return rec
}
