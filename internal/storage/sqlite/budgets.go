package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/saks786/expense-tracker/internal/models"
)

// CreateBudget inserts a budget and populates its ID.
func (s *SQLiteStore) CreateBudget(ctx context.Context, budget *models.Budget) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (user_id, category, limit_amount, month, year)
		 VALUES (?, ?, ?, ?, ?)`,
		budget.UserID, budget.Category, budget.LimitAmount.String(), budget.Month, budget.Year,
	)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	budget.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read budget id: %w", err)
	}
	return nil
}

func scanBudgets(rows *sql.Rows) ([]*models.Budget, error) {
	var budgets []*models.Budget
	for rows.Next() {
		budget := &models.Budget{}
		var limit string
		if err := rows.Scan(&budget.ID, &budget.UserID, &budget.Category, &limit, &budget.Month, &budget.Year); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		var err error
		if budget.LimitAmount, err = parseDecimal(limit); err != nil {
			return nil, err
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate budgets: %w", err)
	}
	return budgets, nil
}

// ListBudgets retrieves all budgets owned by a user.
func (s *SQLiteStore) ListBudgets(ctx context.Context, userID int64) ([]*models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, limit_amount, month, year
		 FROM budgets WHERE user_id = ? ORDER BY year DESC, month DESC, category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}

// ListBudgetsForMonth retrieves every user's budgets for one calendar month.
// Used by the budget-alert job.
func (s *SQLiteStore) ListBudgetsForMonth(ctx context.Context, year, month int) ([]*models.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, limit_amount, month, year
		 FROM budgets WHERE year = ? AND month = ? ORDER BY user_id, category`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets for month: %w", err)
	}
	defer rows.Close()
	return scanBudgets(rows)
}
