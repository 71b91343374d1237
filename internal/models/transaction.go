package models

import "github.com/shopspring/decimal"

// Transaction types, payment methods and statuses.
const (
	TxnDebtPayment  = "debt_payment"
	TxnSplitPayment = "split_expense_payment"

	MethodCard = "card"
	MethodUPI  = "upi"

	TxnPending   = "pending"
	TxnSucceeded = "succeeded"
	TxnFailed    = "failed"
)

// Transaction is a payment processed through the external gateway, settling
// either a debt installment or the user's share of a split expense.
type Transaction struct {
	ID       int64
	UserID   int64
	IntentID string

	// Reference is our idempotency key, sent to the gateway when the intent
	// is created.
	Reference string

	Amount        decimal.Decimal
	Currency      string
	PaymentMethod string
	Type          string

	// DebtID is set for debt payments, SplitExpenseID for split payments.
	DebtID         int64
	SplitExpenseID int64

	Status      string
	Description string
	CreatedAt   int64
	UpdatedAt   int64
}
