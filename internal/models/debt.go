package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt statuses.
const (
	DebtActive = "active"
	DebtPaid   = "paid"
)

// Debt is a personal loan tracked by a user, paid down in monthly EMIs.
type Debt struct {
	ID              int64
	UserID          int64
	Name            string
	PrincipalAmount decimal.Decimal
	InterestRate    decimal.Decimal

	// EMIAmount is the fixed monthly installment.
	EMIAmount decimal.Decimal

	// EMIDate is the day of month (1-31) the installment falls due.
	EMIDate int

	StartDate       time.Time
	RemainingAmount decimal.Decimal
	Status          string
}
