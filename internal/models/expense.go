package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a personal expense owned by a single user. It never enters a
// balance scope; shared spending goes through SplitExpense or GroupExpense.
type Expense struct {
	ID          int64
	UserID      int64
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// CategoryTotal is an analytics row: total spend for one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// MonthlyTotal is an analytics row: total spend for one calendar month.
type MonthlyTotal struct {
	// Month is formatted YYYY-MM.
	Month string
	Total decimal.Decimal
}
