package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientStatus is the lifecycle state of an agency client.
type ClientStatus string

const (
	ClientActive   ClientStatus = "active"
	ClientPaused   ClientStatus = "paused"
	ClientInactive ClientStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientActive, ClientPaused, ClientInactive:
		return true
	}
	return false
}

// Client is an agency customer.
type Client struct {
	ID          string
	Name        string
	Status      ClientStatus
	ContactName string
	CreatedAt   time.Time
}

// Account is one ad account owned by a client on a platform.
type Account struct {
	ID            string
	ClientID      string
	Platform      Platform
	ExternalID    string // act_123 for Meta, 123-456-7890 for Google
	Name          string
	MonthlyBudget decimal.Decimal
	IsPrimary     bool
	CreatedAt     time.Time
}
