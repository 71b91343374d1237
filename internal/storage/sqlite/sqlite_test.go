package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, username string) *models.User {
	t.Helper()
	user := models.NewUser(username, username+"@example.com", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	if user.ID == 0 {
		t.Fatal("expected user ID to be assigned")
	}
	return user
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestUserUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUser(t, store, "alice")

	dup := models.NewUser("alice", "other@example.com", "hash")
	if err := store.CreateUser(ctx, dup); err == nil {
		t.Error("expected error for duplicate username")
	}

	if _, err := store.GetUserByUsername(ctx, "nobody"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpenseRoundTripKeepsExactAmount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := createTestUser(t, store, "alice")

	expense := &models.Expense{
		UserID:      user.ID,
		Category:    "groceries",
		Amount:      dec(t, "123.45"),
		Date:        time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Description: "weekly shop",
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("failed to create expense: %v", err)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("failed to get expense: %v", err)
	}
	if !got.Amount.Equal(dec(t, "123.45")) {
		t.Errorf("expected amount 123.45 exactly, got %s", got.Amount)
	}
	if got.Date.Format("2006-01-02") != "2026-08-10" {
		t.Errorf("expected date 2026-08-10, got %s", got.Date)
	}
}

func TestSplitExpensesBetween(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	charlie := createTestUser(t, store, "charlie")

	create := func(creator int64, participants []int64, amount string) {
		t.Helper()
		split := &models.SplitExpense{
			Description:    "shared",
			TotalAmount:    dec(t, amount),
			Category:       "food",
			Date:           time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			CreatedBy:      creator,
			ParticipantIDs: participants,
			CreatedAt:      time.Now().Unix(),
		}
		if err := store.CreateSplitExpense(ctx, split); err != nil {
			t.Fatalf("failed to create split: %v", err)
		}
	}

	create(alice.ID, []int64{alice.ID, bob.ID}, "100.00")
	create(alice.ID, []int64{alice.ID, charlie.ID}, "60.00")
	create(bob.ID, []int64{bob.ID, alice.ID, charlie.ID}, "90.00")

	between, err := store.ListSplitExpensesBetween(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ListSplitExpensesBetween failed: %v", err)
	}
	// The alice+charlie split must not appear in the alice/bob pair scope.
	if len(between) != 2 {
		t.Fatalf("expected 2 splits between alice and bob, got %d", len(between))
	}
	for _, sp := range between {
		if len(sp.ParticipantIDs) < 2 {
			t.Errorf("expected participants loaded, got %+v", sp)
		}
	}
}

func TestSettlementScopes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	group := &models.Group{Name: "trip", Currency: "INR", CreatedBy: alice.ID, IsActive: true, CreatedAt: time.Now().Unix()}
	creator := &models.GroupMember{UserID: alice.ID, Role: models.RoleAdmin, Status: models.MemberAccepted, JoinedAt: time.Now().Unix()}
	if err := store.CreateGroup(ctx, group, creator); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	peer := &models.Settlement{FromUserID: bob.ID, ToUserID: alice.ID, Amount: dec(t, "40.00"), CreatedAt: time.Now().Unix()}
	if err := store.CreateSettlement(ctx, peer); err != nil {
		t.Fatalf("failed to create peer settlement: %v", err)
	}
	grouped := &models.Settlement{GroupID: group.ID, FromUserID: bob.ID, ToUserID: alice.ID, Amount: dec(t, "25.00"), CreatedAt: time.Now().Unix()}
	if err := store.CreateSettlement(ctx, grouped); err != nil {
		t.Fatalf("failed to create group settlement: %v", err)
	}

	pair, err := store.ListSettlementsBetween(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("ListSettlementsBetween failed: %v", err)
	}
	if len(pair) != 1 || !pair[0].Amount.Equal(dec(t, "40.00")) {
		t.Errorf("expected only the peer settlement in pair scope, got %+v", pair)
	}

	inGroup, err := store.ListGroupSettlements(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListGroupSettlements failed: %v", err)
	}
	if len(inGroup) != 1 || !inGroup[0].Amount.Equal(dec(t, "25.00")) {
		t.Errorf("expected only the group settlement in group scope, got %+v", inGroup)
	}
}

func TestGroupMembersOrderedByJoin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	charlie := createTestUser(t, store, "charlie")

	group := &models.Group{Name: "trip", Currency: "INR", CreatedBy: alice.ID, IsActive: true, CreatedAt: time.Now().Unix()}
	creator := &models.GroupMember{UserID: alice.ID, Role: models.RoleAdmin, Status: models.MemberAccepted, JoinedAt: 100}
	if err := store.CreateGroup(ctx, group, creator); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	for i, u := range []*models.User{charlie, bob} {
		m := &models.GroupMember{
			GroupID:  group.ID,
			UserID:   u.ID,
			Role:     models.RoleMember,
			Status:   models.MemberAccepted,
			JoinedAt: int64(200 + i),
		}
		if err := store.AddGroupMember(ctx, m); err != nil {
			t.Fatalf("failed to add member: %v", err)
		}
	}

	members, err := store.ListGroupMembers(ctx, group.ID, models.MemberAccepted)
	if err != nil {
		t.Fatalf("ListGroupMembers failed: %v", err)
	}
	want := []int64{alice.ID, charlie.ID, bob.ID}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, m := range members {
		if m.UserID != want[i] {
			t.Errorf("position %d: expected user %d, got %d", i, want[i], m.UserID)
		}
	}
}

func TestGroupExpenseSharesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	group := &models.Group{Name: "flat", Currency: "INR", CreatedBy: alice.ID, IsActive: true, CreatedAt: time.Now().Unix()}
	creator := &models.GroupMember{UserID: alice.ID, Role: models.RoleAdmin, Status: models.MemberAccepted, JoinedAt: time.Now().Unix()}
	if err := store.CreateGroup(ctx, group, creator); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	expense := &models.GroupExpense{
		GroupID:     group.ID,
		Description: "rent",
		TotalAmount: dec(t, "1000.01"),
		Category:    "housing",
		Date:        time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		PaidBy:      alice.ID,
		Shares: []models.ExpenseShare{
			{UserID: alice.ID, Amount: dec(t, "500.01")},
			{UserID: bob.ID, Amount: dec(t, "500.00")},
		},
		CreatedAt: time.Now().Unix(),
	}
	if err := store.CreateGroupExpense(ctx, expense); err != nil {
		t.Fatalf("failed to create group expense: %v", err)
	}

	got, err := store.GetGroupExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("failed to get group expense: %v", err)
	}
	if len(got.Shares) != 2 {
		t.Fatalf("expected 2 shares, got %d", len(got.Shares))
	}
	sum := decimal.Zero
	for _, sh := range got.Shares {
		sum = sum.Add(sh.Amount)
	}
	if !sum.Equal(got.TotalAmount) {
		t.Errorf("expected shares to sum to %s exactly, got %s", got.TotalAmount, sum)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")

	txn := &models.Transaction{
		UserID:        alice.ID,
		IntentID:      "pi_123",
		Reference:     "ref-1",
		Amount:        dec(t, "2500.00"),
		Currency:      "INR",
		PaymentMethod: models.MethodUPI,
		Type:          models.TxnDebtPayment,
		DebtID:        1,
		Status:        models.TxnPending,
		CreatedAt:     time.Now().Unix(),
		UpdatedAt:     time.Now().Unix(),
	}
	if err := store.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}

	got, err := store.GetTransactionByIntentID(ctx, "pi_123")
	if err != nil {
		t.Fatalf("GetTransactionByIntentID failed: %v", err)
	}
	if got.Status != models.TxnPending {
		t.Errorf("expected pending, got %q", got.Status)
	}

	if err := store.UpdateTransactionStatus(ctx, got.ID, models.TxnSucceeded, time.Now()); err != nil {
		t.Fatalf("UpdateTransactionStatus failed: %v", err)
	}
	got, err = store.GetTransactionByIntentID(ctx, "pi_123")
	if err != nil {
		t.Fatalf("GetTransactionByIntentID failed: %v", err)
	}
	if got.Status != models.TxnSucceeded {
		t.Errorf("expected succeeded, got %q", got.Status)
	}
}

func TestHasSucceededSplitPayment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")

	base := models.Transaction{
		UserID:        alice.ID,
		Amount:        dec(t, "75.00"),
		Currency:      "INR",
		PaymentMethod: models.MethodCard,
		Type:          models.TxnSplitPayment,
		CreatedAt:     time.Now().Unix(),
		UpdatedAt:     time.Now().Unix(),
	}

	failed := base
	failed.Reference = "ref-failed"
	failed.SplitExpenseID = 7
	failed.Status = models.TxnFailed
	if err := store.CreateTransaction(ctx, &failed); err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}

	ok, err := store.HasSucceededSplitPayment(ctx, alice.ID, 7)
	if err != nil {
		t.Fatalf("HasSucceededSplitPayment failed: %v", err)
	}
	if ok {
		t.Error("failed payment should not count as paid")
	}

	succeeded := base
	succeeded.Reference = "ref-ok"
	succeeded.SplitExpenseID = 7
	succeeded.Status = models.TxnSucceeded
	if err := store.CreateTransaction(ctx, &succeeded); err != nil {
		t.Fatalf("failed to create transaction: %v", err)
	}

	ok, err = store.HasSucceededSplitPayment(ctx, alice.ID, 7)
	if err != nil {
		t.Fatalf("HasSucceededSplitPayment failed: %v", err)
	}
	if !ok {
		t.Error("expected succeeded payment to count as paid")
	}
}

func TestListDebtsDueOn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, store, "alice")

	mk := func(name string, day int, status string) {
		t.Helper()
		d := &models.Debt{
			UserID:          alice.ID,
			Name:            name,
			PrincipalAmount: dec(t, "10000"),
			InterestRate:    dec(t, "8"),
			EMIAmount:       dec(t, "500"),
			EMIDate:         day,
			StartDate:       time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
			RemainingAmount: dec(t, "10000"),
			Status:          status,
		}
		if err := store.CreateDebt(ctx, d); err != nil {
			t.Fatalf("failed to create debt: %v", err)
		}
	}

	mk("car loan", 5, models.DebtActive)
	mk("bike loan", 5, models.DebtPaid)
	mk("home loan", 20, models.DebtActive)

	due, err := store.ListDebtsDueOn(ctx, 5)
	if err != nil {
		t.Fatalf("ListDebtsDueOn failed: %v", err)
	}
	if len(due) != 1 || due[0].Name != "car loan" {
		t.Errorf("expected only the active day-5 debt, got %+v", due)
	}
}
