package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateGroupExpense inserts a group expense with its shares in one
// transaction.
func (s *SQLiteStore) CreateGroupExpense(ctx context.Context, expense *models.GroupExpense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO group_expenses (group_id, description, total_amount, category, date, paid_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		expense.GroupID, expense.Description, expense.TotalAmount.String(),
		expense.Category, expense.Date.Format(dateLayout), expense.PaidBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group expense: %w", err)
	}

	if expense.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read group expense id: %w", err)
	}

	if err := insertShares(ctx, tx, expense.ID, expense.Shares); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertShares(ctx context.Context, tx *sql.Tx, expenseID int64, shares []models.ExpenseShare) error {
	for _, share := range shares {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_expense_shares (group_expense_id, user_id, share_amount) VALUES (?, ?, ?)`,
			expenseID, share.UserID, share.Amount.String(),
		); err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadShares(ctx context.Context, expense *models.GroupExpense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, share_amount FROM group_expense_shares
		 WHERE group_expense_id = ? ORDER BY user_id`, expense.ID)
	if err != nil {
		return fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var share models.ExpenseShare
		var amount string
		if err := rows.Scan(&share.UserID, &amount); err != nil {
			return fmt.Errorf("failed to scan expense share: %w", err)
		}
		if share.Amount, err = parseDecimal(amount); err != nil {
			return err
		}
		expense.Shares = append(expense.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return nil
}

func scanGroupExpense(scan func(dest ...interface{}) error) (*models.GroupExpense, error) {
	expense := &models.GroupExpense{}
	var total, date string

	if err := scan(&expense.ID, &expense.GroupID, &expense.Description, &total,
		&expense.Category, &date, &expense.PaidBy, &expense.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if expense.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if expense.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	return expense, nil
}

const groupExpenseColumns = `id, group_id, description, total_amount, category, date, paid_by, created_at`

// GetGroupExpense retrieves a group expense with its shares.
func (s *SQLiteStore) GetGroupExpense(ctx context.Context, id int64) (*models.GroupExpense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+groupExpenseColumns+` FROM group_expenses WHERE id = ?`, id)

	expense, err := scanGroupExpense(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group expense: %w", err)
	}

	if err := s.loadShares(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListGroupExpenses retrieves all expenses in a group with their shares, in
// insertion order.
func (s *SQLiteStore) ListGroupExpenses(ctx context.Context, groupID int64) ([]*models.GroupExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groupExpenseColumns+` FROM group_expenses WHERE group_id = ? ORDER BY id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.GroupExpense
	for rows.Next() {
		expense, err := scanGroupExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadShares(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// UpdateGroupExpense rewrites an expense and replaces its shares in one
// transaction.
func (s *SQLiteStore) UpdateGroupExpense(ctx context.Context, expense *models.GroupExpense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE group_expenses SET description = ?, total_amount = ?, category = ?, date = ?, paid_by = ?
		 WHERE id = ?`,
		expense.Description, expense.TotalAmount.String(), expense.Category,
		expense.Date.Format(dateLayout), expense.PaidBy, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM group_expense_shares WHERE group_expense_id = ?`, expense.ID); err != nil {
		return fmt.Errorf("failed to clear expense shares: %w", err)
	}
	if err := insertShares(ctx, tx, expense.ID, expense.Shares); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteGroupExpense removes a group expense; shares cascade.
func (s *SQLiteStore) DeleteGroupExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
