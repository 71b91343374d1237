package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EqualSplit divides total evenly across the given participants, rounding each
// share to 2 decimals. The rounded shares can drift from the total by up to
// half a cent per participant; callers building a SharedExpense must park that
// remainder on one share (conventionally the payer's) so Validate passes.
// EqualShares does exactly that.
func EqualSplit(total decimal.Decimal, participantIDs []int64) (map[int64]decimal.Decimal, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: equal split needs at least one participant", ErrInvalidExpense)
	}
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total %s must be positive", ErrInvalidExpense, total)
	}

	per := total.Div(decimal.NewFromInt(int64(len(participantIDs)))).Round(2)
	shares := make(map[int64]decimal.Decimal, len(participantIDs))
	for _, id := range participantIDs {
		shares[id] = per
	}
	return shares, nil
}

// EqualShares builds the share list for an equally split expense, assigning
// the rounding remainder to the payer so the shares sum to total exactly.
// If the payer is not among the participants the first share absorbs it.
func EqualShares(total decimal.Decimal, payerID int64, participantIDs []int64) ([]Share, error) {
	split, err := EqualSplit(total, participantIDs)
	if err != nil {
		return nil, err
	}

	shares := make([]Share, 0, len(participantIDs))
	sum := decimal.Zero
	adjustIdx := 0
	for i, id := range participantIDs {
		shares = append(shares, Share{ParticipantID: id, Amount: split[id]})
		sum = sum.Add(split[id])
		if id == payerID {
			adjustIdx = i
		}
	}

	if remainder := total.Sub(sum); !remainder.IsZero() {
		shares[adjustIdx].Amount = shares[adjustIdx].Amount.Add(remainder)
	}
	return shares, nil
}

// ValidateShares checks that shares sum to total within tolerance.
func ValidateShares(total decimal.Decimal, shares []Share) error {
	sum := decimal.Zero
	for _, sh := range shares {
		sum = sum.Add(sh.Amount)
	}
	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		return fmt.Errorf("%w: shares sum to %s, total is %s", ErrShareMismatch, sum, total)
	}
	return nil
}
