package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomBudget is a date-bounded override of an account's monthly budget.
// An empty AccountID applies to every account the client has on Platform.
type CustomBudget struct {
	ID          string
	ClientID    string
	AccountID   string
	Platform    Platform
	Amount      decimal.Decimal
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientWide reports whether the budget applies to all of the client's accounts.
func (b CustomBudget) ClientWide() bool {
	return b.AccountID == ""
}
