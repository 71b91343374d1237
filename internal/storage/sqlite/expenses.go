package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateExpense inserts a personal expense and populates its ID.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	var desc interface{}
	if expense.Description != "" {
		desc = expense.Description
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category, amount, date, description)
		 VALUES (?, ?, ?, ?, ?)`,
		expense.UserID, expense.Category, expense.Amount.String(),
		expense.Date.Format(dateLayout), desc,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	expense.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	return nil
}

func scanExpense(scan func(dest ...interface{}) error) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount, date string
	var desc sql.NullString

	if err := scan(&expense.ID, &expense.UserID, &expense.Category, &amount, &date, &desc); err != nil {
		return nil, err
	}

	var err error
	if expense.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if expense.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if desc.Valid {
		expense.Description = desc.String
	}
	return expense, nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount, date, description FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpenses retrieves all expenses owned by a user, newest date first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, userID int64) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount, date, description
		 FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense updates an existing expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	var desc interface{}
	if expense.Description != "" {
		desc = expense.Description
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET category = ?, amount = ?, date = ?, description = ? WHERE id = ?`,
		expense.Category, expense.Amount.String(), expense.Date.Format(dateLayout), desc, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CategoryTotals sums a user's expenses per category across all time.
func (s *SQLiteStore) CategoryTotals(ctx context.Context, userID int64) ([]models.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(CAST(amount AS REAL)) FROM expenses
		 WHERE user_id = ? GROUP BY category ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by category: %w", err)
	}
	defer rows.Close()

	return scanCategoryTotals(rows)
}

// CategoryTotalsForMonth sums a user's expenses per category for one month.
func (s *SQLiteStore) CategoryTotalsForMonth(ctx context.Context, userID int64, year, month int) ([]models.CategoryTotal, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(CAST(amount AS REAL)) FROM expenses
		 WHERE user_id = ? AND strftime('%Y-%m', date) = ?
		 GROUP BY category ORDER BY category`, userID, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by category for month: %w", err)
	}
	defer rows.Close()

	return scanCategoryTotals(rows)
}

func scanCategoryTotals(rows *sql.Rows) ([]models.CategoryTotal, error) {
	var totals []models.CategoryTotal
	for rows.Next() {
		var t models.CategoryTotal
		var sum float64
		if err := rows.Scan(&t.Category, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan category total: %w", err)
		}
		t.Total = roundedDecimalFromFloat(sum)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category totals: %w", err)
	}
	return totals, nil
}

// MonthlyTotals sums a user's expenses per calendar month.
func (s *SQLiteStore) MonthlyTotals(ctx context.Context, userID int64) ([]models.MonthlyTotal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', date) AS month, SUM(CAST(amount AS REAL))
		 FROM expenses WHERE user_id = ? GROUP BY month ORDER BY month`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum by month: %w", err)
	}
	defer rows.Close()

	var totals []models.MonthlyTotal
	for rows.Next() {
		var t models.MonthlyTotal
		var sum float64
		if err := rows.Scan(&t.Month, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		t.Total = roundedDecimalFromFloat(sum)
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly totals: %w", err)
	}
	return totals, nil
}
