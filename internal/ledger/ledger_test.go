package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	alice   = Participant{ID: 1, Username: "alice"}
	bob     = Participant{ID: 2, Username: "bob"}
	charlie = Participant{ID: 3, Username: "charlie"}
)

func equalShares(t *testing.T, total string, payerID int64, ids ...int64) []Share {
	t.Helper()
	shares, err := EqualShares(dec(total), payerID, ids)
	if err != nil {
		t.Fatalf("EqualShares(%s) failed: %v", total, err)
	}
	return shares
}

func TestComputeBalances(t *testing.T) {
	tests := []struct {
		name         string
		expenses     []SharedExpense
		settlements  []Settlement
		participants []Participant
		want         map[int64]string
		wantErr      error
	}{
		{
			name: "one expense split between two",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("150.00"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("75.00")},
					{ParticipantID: 2, Amount: dec("75.00")},
				}},
			},
			participants: []Participant{alice, bob},
			want:         map[int64]string{1: "75", 2: "-75"},
		},
		{
			name: "three-way equal split",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("3000.00"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("1000.00")},
					{ParticipantID: 2, Amount: dec("1000.00")},
					{ParticipantID: 3, Amount: dec("1000.00")},
				}},
			},
			participants: []Participant{alice, bob, charlie},
			want:         map[int64]string{1: "2000", 2: "-1000", 3: "-1000"},
		},
		{
			name: "settlement zeroes a pair",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("150.00"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("75.00")},
					{ParticipantID: 2, Amount: dec("75.00")},
				}},
			},
			settlements: []Settlement{
				{ID: 1, FromID: 2, ToID: 1, Amount: dec("75.00")},
			},
			participants: []Participant{alice, bob},
			want:         map[int64]string{1: "0", 2: "0"},
		},
		{
			name: "multiple expenses accumulate",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("12000.00"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("4000.00")},
					{ParticipantID: 2, Amount: dec("4000.00")},
					{ParticipantID: 3, Amount: dec("4000.00")},
				}},
				{ID: 2, Total: dec("2400.00"), PayerID: 2, Shares: []Share{
					{ParticipantID: 1, Amount: dec("800.00")},
					{ParticipantID: 2, Amount: dec("800.00")},
					{ParticipantID: 3, Amount: dec("800.00")},
				}},
			},
			participants: []Participant{alice, bob, charlie},
			want:         map[int64]string{1: "7200", 2: "-2400", 3: "-4800"},
		},
		{
			name: "mismatched shares rejected",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("100.00"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("50.00")},
					{ParticipantID: 2, Amount: dec("49.00")},
				}},
			},
			participants: []Participant{alice, bob},
			wantErr:      ErrShareMismatch,
		},
		{
			name: "expense without shares rejected",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("100.00"), PayerID: 1},
			},
			participants: []Participant{alice, bob},
			wantErr:      ErrInvalidExpense,
		},
		{
			name: "non-positive total rejected",
			expenses: []SharedExpense{
				{ID: 1, Total: dec("0"), PayerID: 1, Shares: []Share{
					{ParticipantID: 1, Amount: dec("0")},
				}},
			},
			participants: []Participant{alice},
			wantErr:      ErrInvalidExpense,
		},
		{
			name:         "empty scope is all zeros",
			participants: []Participant{alice, bob},
			want:         map[int64]string{1: "0", 2: "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeBalances(tt.expenses, tt.settlements, tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeBalances() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeBalances() failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d balances, want %d", len(got), len(tt.want))
			}
			for id, want := range tt.want {
				if !got[id].Equal(dec(want)) {
					t.Errorf("balance[%d] = %s, want %s", id, got[id], want)
				}
			}
		})
	}
}

func TestComputeBalancesZeroSum(t *testing.T) {
	expenses := []SharedExpense{
		{ID: 1, Total: dec("100.00"), PayerID: 1, Shares: equalShares(t, "100.00", 1, 1, 2, 3)},
		{ID: 2, Total: dec("59.99"), PayerID: 2, Shares: equalShares(t, "59.99", 2, 1, 2)},
		{ID: 3, Total: dec("7.01"), PayerID: 3, Shares: equalShares(t, "7.01", 3, 2, 3)},
	}
	settlements := []Settlement{
		{ID: 1, FromID: 2, ToID: 1, Amount: dec("12.34")},
	}
	participants := []Participant{alice, bob, charlie}

	balances, err := ComputeBalances(expenses, settlements, participants)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}

	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	limit := Tolerance.Mul(decimal.NewFromInt(int64(len(participants))))
	if sum.Abs().GreaterThan(limit) {
		t.Errorf("balances sum to %s, want 0 within %s", sum, limit)
	}
}

func TestComputeBalancesIdempotent(t *testing.T) {
	expenses := []SharedExpense{
		{ID: 1, Total: dec("100.00"), PayerID: 1, Shares: equalShares(t, "100.00", 1, 1, 2, 3)},
		{ID: 2, Total: dec("45.50"), PayerID: 3, Shares: equalShares(t, "45.50", 3, 1, 3)},
	}
	participants := []Participant{alice, bob, charlie}

	first, err := ComputeBalances(expenses, nil, participants)
	if err != nil {
		t.Fatalf("first ComputeBalances() failed: %v", err)
	}
	second, err := ComputeBalances(expenses, nil, participants)
	if err != nil {
		t.Fatalf("second ComputeBalances() failed: %v", err)
	}

	for id := range first {
		if !first[id].Equal(second[id]) {
			t.Errorf("balance[%d] changed between runs: %s vs %s", id, first[id], second[id])
		}
	}
}

func TestComputeBalancesOrderIndependent(t *testing.T) {
	expenses := []SharedExpense{
		{ID: 1, Total: dec("90.00"), PayerID: 1, Shares: equalShares(t, "90.00", 1, 1, 2, 3)},
		{ID: 2, Total: dec("30.00"), PayerID: 2, Shares: equalShares(t, "30.00", 2, 2, 3)},
		{ID: 3, Total: dec("12.00"), PayerID: 3, Shares: equalShares(t, "12.00", 3, 1, 3)},
	}
	reversed := []SharedExpense{expenses[2], expenses[1], expenses[0]}
	participants := []Participant{alice, bob, charlie}

	forward, err := ComputeBalances(expenses, nil, participants)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}
	backward, err := ComputeBalances(reversed, nil, participants)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}

	for id := range forward {
		if !forward[id].Equal(backward[id]) {
			t.Errorf("balance[%d] depends on expense order: %s vs %s", id, forward[id], backward[id])
		}
	}
}

func TestSuggestSettlements(t *testing.T) {
	tests := []struct {
		name         string
		participants []Participant
		balances     map[int64]string
		want         []Suggestion
	}{
		{
			name:         "single debtor single creditor",
			participants: []Participant{alice, bob},
			balances:     map[int64]string{1: "75.00", 2: "-75.00"},
			want: []Suggestion{
				{FromID: 2, FromUsername: "bob", ToID: 1, ToUsername: "alice", Amount: dec("75.00")},
			},
		},
		{
			name:         "two debtors one creditor",
			participants: []Participant{alice, bob, charlie},
			balances:     map[int64]string{1: "2000.00", 2: "-1000.00", 3: "-1000.00"},
			want: []Suggestion{
				{FromID: 2, FromUsername: "bob", ToID: 1, ToUsername: "alice", Amount: dec("1000.00")},
				{FromID: 3, FromUsername: "charlie", ToID: 1, ToUsername: "alice", Amount: dec("1000.00")},
			},
		},
		{
			name:         "debtor pays two creditors",
			participants: []Participant{alice, bob, charlie},
			balances:     map[int64]string{1: "30.00", 2: "-100.00", 3: "70.00"},
			want: []Suggestion{
				{FromID: 2, FromUsername: "bob", ToID: 1, ToUsername: "alice", Amount: dec("30.00")},
				{FromID: 2, FromUsername: "bob", ToID: 3, ToUsername: "charlie", Amount: dec("70.00")},
			},
		},
		{
			name:         "all settled yields nothing",
			participants: []Participant{alice, bob},
			balances:     map[int64]string{1: "0.00", 2: "0.00"},
			want:         nil,
		},
		{
			name:         "sub-cent noise ignored",
			participants: []Participant{alice, bob},
			balances:     map[int64]string{1: "0.01", 2: "-0.01"},
			want:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances := make(map[int64]decimal.Decimal, len(tt.balances))
			for id, s := range tt.balances {
				balances[id] = dec(s)
			}

			got := SuggestSettlements(tt.participants, balances)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d suggestions, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i].FromID != want.FromID || got[i].ToID != want.ToID {
					t.Errorf("suggestion[%d] = %s->%s, want %s->%s",
						i, got[i].FromUsername, got[i].ToUsername, want.FromUsername, want.ToUsername)
				}
				if !got[i].Amount.Equal(want.Amount) {
					t.Errorf("suggestion[%d] amount = %s, want %s", i, got[i].Amount, want.Amount)
				}
			}
		})
	}
}

// Applying every suggestion back onto the balances must leave all of them
// within tolerance of zero.
func TestSuggestSettlementsCompleteness(t *testing.T) {
	participants := []Participant{alice, bob, charlie, {ID: 4, Username: "dave"}}
	expenses := []SharedExpense{
		{ID: 1, Total: dec("100.00"), PayerID: 1, Shares: equalShares(t, "100.00", 1, 1, 2, 3)},
		{ID: 2, Total: dec("59.99"), PayerID: 2, Shares: equalShares(t, "59.99", 2, 2, 3, 4)},
		{ID: 3, Total: dec("250.10"), PayerID: 4, Shares: equalShares(t, "250.10", 4, 1, 2, 3, 4)},
	}

	balances, err := ComputeBalances(expenses, nil, participants)
	if err != nil {
		t.Fatalf("ComputeBalances() failed: %v", err)
	}

	for _, s := range SuggestSettlements(participants, balances) {
		balances[s.FromID] = balances[s.FromID].Add(s.Amount)
		balances[s.ToID] = balances[s.ToID].Sub(s.Amount)
	}

	for id, b := range balances {
		if b.Abs().GreaterThan(Tolerance) {
			t.Errorf("balance[%d] = %s after applying suggestions, want 0 within %s", id, b, Tolerance)
		}
	}
}

// An inconsistent snapshot (sums disagree) must still terminate and return
// suggestions; the mismatch is only logged.
func TestSuggestSettlementsInconsistentLedger(t *testing.T) {
	participants := []Participant{alice, bob}
	balances := map[int64]decimal.Decimal{
		1: dec("100.00"),
		2: dec("-40.00"),
	}

	got := SuggestSettlements(participants, balances)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	if !got[0].Amount.Equal(dec("40.00")) {
		t.Errorf("suggestion amount = %s, want 40.00", got[0].Amount)
	}
}
