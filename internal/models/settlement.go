package models

import "github.com/shopspring/decimal"

// Settlement is a recorded real-world payment from one user to another,
// reducing what the payer owes the receiver. Append-only: settlements are
// never mutated, and balances subtract them on every recomputation.
//
// GroupID scopes the settlement to a group; zero means a peer-to-peer
// settlement between friends.
type Settlement struct {
	ID         int64
	GroupID    int64
	FromUserID int64
	ToUserID   int64
	Amount     decimal.Decimal
	CreatedAt  int64
}
