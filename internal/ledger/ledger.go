// Package ledger computes net balances and settlement suggestions over a
// scope's shared expenses and recorded settlements. It is a pure computation:
// callers fetch a fresh snapshot from storage, fold it here, and serialize the
// result. Nothing in this package touches I/O or caches balances.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidExpense marks an expense with no shares or a non-positive total.
	ErrInvalidExpense = errors.New("invalid shared expense")

	// ErrShareMismatch marks an expense whose shares do not sum to its total.
	ErrShareMismatch = errors.New("shares do not sum to expense total")
)

// Tolerance is the comparison slack for currency amounts (one cent).
var Tolerance = decimal.New(1, -2)

// Participant is a user within a balance scope (a group or a friend pair).
type Participant struct {
	ID       int64
	Username string
}

// Share is one participant's portion of a shared expense.
type Share struct {
	ParticipantID int64
	Amount        decimal.Decimal
}

// SharedExpense is an immutable expense record: one payer covered Total, and
// Shares says how much of it each participant is on the hook for.
type SharedExpense struct {
	ID          int64
	Description string
	Total       decimal.Decimal
	PayerID     int64
	Shares      []Share
}

// Validate rejects degenerate or inconsistent expenses before they can skew a
// balance fold.
func (e SharedExpense) Validate() error {
	if !e.Total.IsPositive() {
		return fmt.Errorf("%w: total %s must be positive", ErrInvalidExpense, e.Total)
	}
	if len(e.Shares) == 0 {
		return fmt.Errorf("%w: expense has no shares", ErrInvalidExpense)
	}
	sum := decimal.Zero
	for _, sh := range e.Shares {
		sum = sum.Add(sh.Amount)
	}
	if sum.Sub(e.Total).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: shares sum to %s, total is %s", ErrShareMismatch, sum, e.Total)
	}
	return nil
}

// Settlement is a realized payment from one participant to another.
type Settlement struct {
	ID        int64
	FromID    int64
	ToID      int64
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// Suggestion is a proposed transfer that helps zero out the scope's balances.
// Suggestions are ephemeral; they are never persisted.
type Suggestion struct {
	FromID       int64
	FromUsername string
	ToID         int64
	ToUsername   string
	Amount       decimal.Decimal
}

// ComputeBalances folds a scope's expenses and settlements into a net balance
// per participant, rounded to 2 decimals. Positive means the participant is
// owed money, negative means they owe.
//
// The fold:
//   - each expense credits its payer by the total and debits every share
//   - each settlement credits the payer (their debt shrinks) and debits the
//     receiver
//
// Every known participant appears in the result, even with a zero balance.
// A malformed expense aborts the whole computation rather than producing
// silently wrong numbers.
func ComputeBalances(expenses []SharedExpense, settlements []Settlement, participants []Participant) (map[int64]decimal.Decimal, error) {
	balances := make(map[int64]decimal.Decimal, len(participants))
	for _, p := range participants {
		balances[p.ID] = decimal.Zero
	}

	for _, e := range expenses {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		balances[e.PayerID] = balances[e.PayerID].Add(e.Total)
		for _, sh := range e.Shares {
			balances[sh.ParticipantID] = balances[sh.ParticipantID].Sub(sh.Amount)
		}
	}

	for _, s := range settlements {
		balances[s.FromID] = balances[s.FromID].Add(s.Amount)
		balances[s.ToID] = balances[s.ToID].Sub(s.Amount)
	}

	for id, b := range balances {
		balances[id] = b.Round(2)
	}
	return balances, nil
}

// SuggestSettlements proposes transfers that zero out the given balances using
// greedy debtor/creditor matching. Partitioning follows the order of the
// participants slice, which makes the output deterministic for a fixed
// snapshot. The result is not guaranteed to be the minimal transaction count.
//
// If the debtor and creditor sums disagree beyond tolerance the snapshot is
// internally inconsistent; this is logged and the (possibly slightly
// imbalanced) suggestions are returned anyway so callers are not blocked.
func SuggestSettlements(participants []Participant, balances map[int64]decimal.Decimal) []Suggestion {
	type cursor struct {
		p         Participant
		remaining decimal.Decimal
	}

	var debtors, creditors []cursor
	debtSum, creditSum := decimal.Zero, decimal.Zero
	for _, p := range participants {
		b, ok := balances[p.ID]
		if !ok {
			continue
		}
		switch {
		case b.LessThan(Tolerance.Neg()):
			debtors = append(debtors, cursor{p: p, remaining: b.Neg()})
			debtSum = debtSum.Add(b.Neg())
		case b.GreaterThan(Tolerance):
			creditors = append(creditors, cursor{p: p, remaining: b})
			creditSum = creditSum.Add(b)
		}
	}

	if debtSum.Sub(creditSum).Abs().GreaterThan(Tolerance) {
		slog.Warn("ledger inconsistency: debtor and creditor totals disagree",
			"debtor_total", debtSum.String(),
			"creditor_total", creditSum.String(),
		)
	}

	var suggestions []Suggestion
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		transfer := decimal.Min(debtors[i].remaining, creditors[j].remaining)

		suggestions = append(suggestions, Suggestion{
			FromID:       debtors[i].p.ID,
			FromUsername: debtors[i].p.Username,
			ToID:         creditors[j].p.ID,
			ToUsername:   creditors[j].p.Username,
			Amount:       transfer.Round(2),
		})

		debtors[i].remaining = debtors[i].remaining.Sub(transfer)
		creditors[j].remaining = creditors[j].remaining.Sub(transfer)

		if debtors[i].remaining.LessThan(Tolerance) {
			i++
		}
		if creditors[j].remaining.LessThan(Tolerance) {
			j++
		}
	}

	return suggestions
}
