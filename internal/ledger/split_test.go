package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEqualSplit(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		ids      []int64
		wantPer  string
		wantErr  error
	}{
		{name: "even division", total: "150.00", ids: []int64{1, 2}, wantPer: "75"},
		{name: "three-way with rounding", total: "100.00", ids: []int64{1, 2, 3}, wantPer: "33.33"},
		{name: "single participant", total: "42.00", ids: []int64{7}, wantPer: "42"},
		{name: "no participants", total: "10.00", ids: nil, wantErr: ErrInvalidExpense},
		{name: "zero total", total: "0", ids: []int64{1}, wantErr: ErrInvalidExpense},
		{name: "negative total", total: "-5.00", ids: []int64{1}, wantErr: ErrInvalidExpense},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EqualSplit(dec(tt.total), tt.ids)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("EqualSplit() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EqualSplit() failed: %v", err)
			}
			for _, id := range tt.ids {
				if !got[id].Equal(dec(tt.wantPer)) {
					t.Errorf("share[%d] = %s, want %s", id, got[id], tt.wantPer)
				}
			}
		})
	}
}

// 100.00 across three people rounds to 33.33 each; the sum must stay within
// tolerance of the total, and EqualShares must close the gap exactly.
func TestEqualSplitRoundTrip(t *testing.T) {
	total := dec("100.00")
	ids := []int64{1, 2, 3}

	split, err := EqualSplit(total, ids)
	if err != nil {
		t.Fatalf("EqualSplit() failed: %v", err)
	}

	sum := decimal.Zero
	for _, id := range ids {
		sum = sum.Add(split[id])
	}
	if sum.Sub(total).Abs().GreaterThan(Tolerance) {
		t.Errorf("rounded shares sum to %s, want within %s of %s", sum, Tolerance, total)
	}

	shares, err := EqualShares(total, 1, ids)
	if err != nil {
		t.Fatalf("EqualShares() failed: %v", err)
	}
	exact := decimal.Zero
	for _, sh := range shares {
		exact = exact.Add(sh.Amount)
	}
	if !exact.Equal(total) {
		t.Errorf("adjusted shares sum to %s, want exactly %s", exact, total)
	}

	// Payer's share carries the remainder.
	if !shares[0].Amount.Equal(dec("33.34")) {
		t.Errorf("payer share = %s, want 33.34", shares[0].Amount)
	}

	expense := SharedExpense{ID: 1, Total: total, PayerID: 1, Shares: shares}
	if err := expense.Validate(); err != nil {
		t.Errorf("adjusted expense failed validation: %v", err)
	}
}

func TestEqualSharesPayerOutsideParticipants(t *testing.T) {
	shares, err := EqualShares(dec("100.00"), 99, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("EqualShares() failed: %v", err)
	}

	sum := decimal.Zero
	for _, sh := range shares {
		sum = sum.Add(sh.Amount)
	}
	if !sum.Equal(dec("100.00")) {
		t.Errorf("shares sum to %s, want 100.00", sum)
	}
	// Remainder falls to the first share when the payer is not listed.
	if !shares[0].Amount.Equal(dec("33.34")) {
		t.Errorf("first share = %s, want 33.34", shares[0].Amount)
	}
}

func TestValidateShares(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		shares  []Share
		wantErr bool
	}{
		{
			name:  "exact sum",
			total: "100.00",
			shares: []Share{
				{ParticipantID: 1, Amount: dec("50.00")},
				{ParticipantID: 2, Amount: dec("50.00")},
			},
		},
		{
			name:  "within tolerance",
			total: "100.00",
			shares: []Share{
				{ParticipantID: 1, Amount: dec("50.00")},
				{ParticipantID: 2, Amount: dec("49.99")},
			},
		},
		{
			name:  "off by a full unit",
			total: "100.00",
			shares: []Share{
				{ParticipantID: 1, Amount: dec("50.00")},
				{ParticipantID: 2, Amount: dec("49.00")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateShares(dec(tt.total), tt.shares)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateShares() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrShareMismatch) {
				t.Errorf("error = %v, want ErrShareMismatch", err)
			}
		})
	}
}
