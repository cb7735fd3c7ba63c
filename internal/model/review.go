package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a budget recommendation.
type Direction string

const (
	DirectionNone     Direction = "none"
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Basis names the spend figure a recommendation compares against the ideal.
type Basis string

const (
	BasisCurrentConfigured Basis = "current_configured"
	BasisTrailingAverage   Basis = "trailing_average"
)

// Recommendation is a directional adjustment signal for one basis.
type Recommendation struct {
	Basis     Basis
	Direction Direction
	Magnitude decimal.Decimal // absolute difference to the ideal, always >= 0
}

// Actionable reports whether the recommendation asks for a change.
func (r Recommendation) Actionable() bool {
	return r.Direction == DirectionIncrease || r.Direction == DirectionDecrease
}

// Review is the persisted daily budget review of one account.
type Review struct {
	ID                 string
	ClientID           string
	ClientName         string
	AccountID          string
	AccountName        string
	Platform           Platform
	ReviewDate         time.Time
	TotalBudget        decimal.Decimal
	Spent              decimal.Decimal
	CurrentDailyBudget decimal.Decimal
	TrailingAverage    decimal.Decimal
	RemainingDays      int
	RemainingBudget    decimal.Decimal
	IdealDailyBudget   decimal.Decimal
	CustomBudgetID     string // empty when the monthly cycle applies
	PeriodStart        time.Time
	PeriodEnd          time.Time
	Current            Recommendation
	Average            Recommendation
	CreatedAt          time.Time
}

// UsingCustomBudget reports whether a custom budget drove this review.
func (r Review) UsingCustomBudget() bool {
	return r.CustomBudgetID != ""
}

// NeedsAdjustment reports whether either basis recommends a change.
func (r Review) NeedsAdjustment() bool {
	return r.Current.Actionable() || r.Average.Actionable()
}
