package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SplitExpense is a shared expense among friends, outside any group. The
// creator pays the full amount and every participant (creator included) owes
// an equal share. Immutable once created; balances are derived from the
// current record set on every read.
type SplitExpense struct {
	ID          int64
	Description string
	TotalAmount decimal.Decimal
	Category    string
	Date        time.Time
	CreatedBy   int64

	// ParticipantIDs lists everyone splitting the expense, creator included.
	ParticipantIDs []int64

	CreatedAt int64
}
