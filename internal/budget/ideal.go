package budget

import "github.com/shopspring/decimal"

// RemainingBudget returns total - spent, clamped at zero on overspend.
func RemainingBudget(total, spent decimal.Decimal) decimal.Decimal {
	remaining := total.Sub(spent)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IdealDailyBudget spreads the remaining budget over the remaining days,
// rounded half-up to the cent. It returns zero when no days remain.
func IdealDailyBudget(total, spent decimal.Decimal, remainingDays int) decimal.Decimal {
	if remainingDays <= 0 {
		return decimal.Zero
	}
	remaining := RemainingBudget(total, spent)
	return remaining.DivRound(decimal.NewFromInt(int64(remainingDays)), 2)
}
