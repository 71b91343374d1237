package models

import "github.com/shopspring/decimal"

// Budget is a per-category spending limit for one calendar month.
type Budget struct {
	ID          int64
	UserID      int64
	Category    string
	LimitAmount decimal.Decimal
	Month       int
	Year        int
}
