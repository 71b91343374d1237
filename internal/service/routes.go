package service

import (
	"net/http"

	"github.com/saks786/expense-tracker/internal/auth"
	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/payments"
	"github.com/saks786/expense-tracker/internal/storage"
)

// Services bundles the per-resource services behind one route registry.
type Services struct {
	Auth    *AuthService
	Expense *ExpenseService
	Budget  *BudgetService
	Debt    *DebtService
	Friend  *FriendService
	Split   *SplitService
	Group   *GroupService
	Payment *PaymentService

	jwtManager *auth.JWTManager
}

// New wires up every service over the shared dependencies.
func New(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, gateway payments.Gateway, mailer notifier.Mailer, currency string) *Services {
	return &Services{
		Auth:       NewAuthService(authenticator, jwtManager, store),
		Expense:    NewExpenseService(store),
		Budget:     NewBudgetService(store),
		Debt:       NewDebtService(store),
		Friend:     NewFriendService(store, mailer),
		Split:      NewSplitService(store),
		Group:      NewGroupService(store, mailer),
		Payment:    NewPaymentService(store, gateway, currency),
		jwtManager: jwtManager,
	}
}

// Register mounts every route on the mux. Protected routes go through the
// bearer-token middleware; register, token and the gateway webhook do not.
func (s *Services) Register(mux *http.ServeMux) {
	protected := func(pattern string, handler http.HandlerFunc) {
		mux.Handle(pattern, middleware.RequireAuth(s.jwtManager, handler))
	}

	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "pong"})
	})

	mux.HandleFunc("POST /api/register", s.Auth.Register)
	mux.HandleFunc("POST /api/token", s.Auth.Token)
	protected("GET /api/users/me", s.Auth.Me)

	protected("POST /api/expenses", s.Expense.Create)
	protected("GET /api/expenses", s.Expense.List)
	protected("PUT /api/expenses/{id}", s.Expense.Update)
	protected("DELETE /api/expenses/{id}", s.Expense.Delete)
	protected("GET /api/analytics/category", s.Expense.CategoryAnalytics)
	protected("GET /api/analytics/monthly", s.Expense.MonthlyAnalytics)

	protected("POST /api/budgets", s.Budget.Create)
	protected("GET /api/budgets", s.Budget.List)

	protected("POST /api/debts", s.Debt.Create)
	protected("GET /api/debts", s.Debt.List)
	protected("PUT /api/debts/{id}", s.Debt.Update)
	protected("DELETE /api/debts/{id}", s.Debt.Delete)

	protected("POST /api/friends/request", s.Friend.Request)
	protected("GET /api/friends", s.Friend.List)
	protected("GET /api/friends/requests", s.Friend.Requests)
	protected("PUT /api/friends/{id}/accept", s.Friend.Accept)
	protected("DELETE /api/friends/{id}", s.Friend.Delete)
	protected("GET /api/friends/{id}/balance", s.Friend.Balance)

	protected("POST /api/split-expenses", s.Split.Create)
	protected("GET /api/split-expenses", s.Split.List)
	protected("DELETE /api/split-expenses/{id}", s.Split.Delete)

	protected("POST /api/groups", s.Group.Create)
	protected("GET /api/groups", s.Group.List)
	protected("GET /api/groups/invitations/pending", s.Group.PendingInvitations)
	protected("GET /api/groups/{id}", s.Group.Get)
	protected("PUT /api/groups/{id}", s.Group.Update)
	protected("DELETE /api/groups/{id}", s.Group.Delete)
	protected("POST /api/groups/{id}/invite", s.Group.Invite)
	protected("POST /api/groups/{id}/join", s.Group.Join)
	protected("PUT /api/groups/{id}/members/{userID}", s.Group.UpdateMember)
	protected("DELETE /api/groups/{id}/members/{userID}", s.Group.RemoveMember)
	protected("POST /api/groups/{id}/expenses", s.Group.CreateExpense)
	protected("GET /api/groups/{id}/expenses", s.Group.ListExpenses)
	protected("PUT /api/groups/{id}/expenses/{expenseID}", s.Group.UpdateExpense)
	protected("DELETE /api/groups/{id}/expenses/{expenseID}", s.Group.DeleteExpense)
	protected("GET /api/groups/{id}/balances", s.Group.Balances)
	protected("GET /api/groups/{id}/settlements/suggestions", s.Group.SettlementSuggestions)
	protected("POST /api/groups/{id}/settlements", s.Group.CreateSettlement)
	protected("GET /api/groups/{id}/settlements", s.Group.ListSettlements)

	protected("POST /api/payments/create-intent", s.Payment.CreateIntent)
	protected("POST /api/payments/confirm", s.Payment.Confirm)
	protected("GET /api/payments/transactions", s.Payment.Transactions)
	mux.HandleFunc("POST /api/payments/webhook", s.Payment.Webhook)
}
