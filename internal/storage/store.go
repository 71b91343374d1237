// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations used by the service layer. The
// abstraction keeps services independent of the backend (SQLite today,
// PostgreSQL later) and lets handler tests run against a temp database.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)

	// Personal expenses and analytics
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	ListExpenses(ctx context.Context, userID int64) ([]*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
	CategoryTotals(ctx context.Context, userID int64) ([]models.CategoryTotal, error)
	CategoryTotalsForMonth(ctx context.Context, userID int64, year, month int) ([]models.CategoryTotal, error)
	MonthlyTotals(ctx context.Context, userID int64) ([]models.MonthlyTotal, error)

	// Budgets
	CreateBudget(ctx context.Context, budget *models.Budget) error
	ListBudgets(ctx context.Context, userID int64) ([]*models.Budget, error)
	ListBudgetsForMonth(ctx context.Context, year, month int) ([]*models.Budget, error)

	// Debts
	CreateDebt(ctx context.Context, debt *models.Debt) error
	GetDebt(ctx context.Context, id int64) (*models.Debt, error)
	ListDebts(ctx context.Context, userID int64) ([]*models.Debt, error)
	UpdateDebt(ctx context.Context, debt *models.Debt) error
	DeleteDebt(ctx context.Context, id int64) error
	ListDebtsDueOn(ctx context.Context, day int) ([]*models.Debt, error)

	// Friendships
	CreateFriendship(ctx context.Context, friendship *models.Friendship) error
	GetFriendship(ctx context.Context, id int64) (*models.Friendship, error)
	GetFriendshipBetween(ctx context.Context, userID, friendID int64) (*models.Friendship, error)
	ListFriendships(ctx context.Context, userID int64, status string) ([]*models.Friendship, error)
	ListFriendRequests(ctx context.Context, userID int64) ([]*models.Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id int64, status string) error
	DeleteFriendship(ctx context.Context, id int64) error

	// Split expenses (friend scope)
	CreateSplitExpense(ctx context.Context, split *models.SplitExpense) error
	GetSplitExpense(ctx context.Context, id int64) (*models.SplitExpense, error)
	ListSplitExpensesForUser(ctx context.Context, userID int64) ([]*models.SplitExpense, error)
	ListSplitExpensesBetween(ctx context.Context, userID, friendID int64) ([]*models.SplitExpense, error)
	DeleteSplitExpense(ctx context.Context, id int64) error

	// Groups and membership
	CreateGroup(ctx context.Context, group *models.Group, creator *models.GroupMember) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int64, memberStatus string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error
	AddGroupMember(ctx context.Context, member *models.GroupMember) error
	GetGroupMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error)
	ListGroupMembers(ctx context.Context, groupID int64, status string) ([]*models.GroupMember, error)
	UpdateGroupMember(ctx context.Context, member *models.GroupMember) error
	RemoveGroupMember(ctx context.Context, groupID, userID int64) error

	// Group expenses
	CreateGroupExpense(ctx context.Context, expense *models.GroupExpense) error
	GetGroupExpense(ctx context.Context, id int64) (*models.GroupExpense, error)
	ListGroupExpenses(ctx context.Context, groupID int64) ([]*models.GroupExpense, error)
	UpdateGroupExpense(ctx context.Context, expense *models.GroupExpense) error
	DeleteGroupExpense(ctx context.Context, id int64) error

	// Settlements
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	ListGroupSettlements(ctx context.Context, groupID int64) ([]*models.Settlement, error)
	ListSettlementsBetween(ctx context.Context, userID, friendID int64) ([]*models.Settlement, error)

	// Payment transactions
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransactionByIntentID(ctx context.Context, intentID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error
	HasSucceededSplitPayment(ctx context.Context, userID, splitExpenseID int64) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
