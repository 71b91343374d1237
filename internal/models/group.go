package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Group member roles and statuses.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	MemberInvited  = "invited"
	MemberAccepted = "accepted"
)

// Group is a recurring set of users who share expenses.
type Group struct {
	ID          int64
	Name        string
	Description string
	Currency    string
	CreatedBy   int64
	IsActive    bool
	CreatedAt   int64
}

// GroupMember is one user's membership in a group. Invitations are members
// with status "invited"; they join by accepting.
type GroupMember struct {
	ID       int64
	GroupID  int64
	UserID   int64
	Role     string
	Status   string
	JoinedAt int64
}

// ExpenseShare is one participant's portion of a group expense.
type ExpenseShare struct {
	UserID int64
	Amount decimal.Decimal
}

// GroupExpense is a shared expense inside a group, with explicit per-member
// shares. Shares always sum to TotalAmount; that invariant is enforced at
// creation and re-checked by the ledger on every balance computation.
type GroupExpense struct {
	ID          int64
	GroupID     int64
	Description string
	TotalAmount decimal.Decimal
	Category    string
	Date        time.Time
	PaidBy      int64
	Shares      []ExpenseShare
	CreatedAt   int64
}
