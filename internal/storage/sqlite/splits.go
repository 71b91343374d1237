package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateSplitExpense inserts a split expense and its participant rows in one
// transaction.
func (s *SQLiteStore) CreateSplitExpense(ctx context.Context, split *models.SplitExpense) error {
	if split.CreatedAt == 0 {
		split.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO split_expenses (description, total_amount, category, date, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		split.Description, split.TotalAmount.String(), split.Category,
		split.Date.Format(dateLayout), split.CreatedBy, split.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split expense: %w", err)
	}

	if split.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read split expense id: %w", err)
	}

	for _, userID := range split.ParticipantIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO split_participants (split_expense_id, user_id) VALUES (?, ?)`,
			split.ID, userID,
		); err != nil {
			return fmt.Errorf("failed to insert split participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadSplitParticipants(ctx context.Context, split *models.SplitExpense) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM split_participants WHERE split_expense_id = ? ORDER BY user_id`, split.ID)
	if err != nil {
		return fmt.Errorf("failed to get split participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan split participant: %w", err)
		}
		split.ParticipantIDs = append(split.ParticipantIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate split participants: %w", err)
	}
	return nil
}

func scanSplitExpense(scan func(dest ...interface{}) error) (*models.SplitExpense, error) {
	split := &models.SplitExpense{}
	var total, date string

	if err := scan(&split.ID, &split.Description, &total, &split.Category, &date,
		&split.CreatedBy, &split.CreatedAt); err != nil {
		return nil, err
	}

	var err error
	if split.TotalAmount, err = parseDecimal(total); err != nil {
		return nil, err
	}
	if split.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	return split, nil
}

const splitColumns = `id, description, total_amount, category, date, created_by, created_at`

// GetSplitExpense retrieves a split expense with its participants.
func (s *SQLiteStore) GetSplitExpense(ctx context.Context, id int64) (*models.SplitExpense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+splitColumns+` FROM split_expenses WHERE id = ?`, id)

	split, err := scanSplitExpense(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split expense: %w", err)
	}

	if err := s.loadSplitParticipants(ctx, split); err != nil {
		return nil, err
	}
	return split, nil
}

func (s *SQLiteStore) querySplitExpenses(ctx context.Context, query string, args ...interface{}) ([]*models.SplitExpense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list split expenses: %w", err)
	}
	defer rows.Close()

	var splits []*models.SplitExpense
	for rows.Next() {
		split, err := scanSplitExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split expense: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate split expenses: %w", err)
	}

	for _, split := range splits {
		if err := s.loadSplitParticipants(ctx, split); err != nil {
			return nil, err
		}
	}
	return splits, nil
}

// ListSplitExpensesForUser retrieves split expenses the user created or
// participates in.
func (s *SQLiteStore) ListSplitExpensesForUser(ctx context.Context, userID int64) ([]*models.SplitExpense, error) {
	return s.querySplitExpenses(ctx,
		`SELECT DISTINCT se.id, se.description, se.total_amount, se.category, se.date, se.created_by, se.created_at
		 FROM split_expenses se
		 LEFT JOIN split_participants sp ON sp.split_expense_id = se.id
		 WHERE se.created_by = ? OR sp.user_id = ?
		 ORDER BY se.id`, userID, userID)
}

// ListSplitExpensesBetween retrieves split expenses where both users are
// participants. This is the friend-pair balance scope.
func (s *SQLiteStore) ListSplitExpensesBetween(ctx context.Context, userID, friendID int64) ([]*models.SplitExpense, error) {
	return s.querySplitExpenses(ctx,
		`SELECT se.id, se.description, se.total_amount, se.category, se.date, se.created_by, se.created_at
		 FROM split_expenses se
		 WHERE EXISTS (SELECT 1 FROM split_participants WHERE split_expense_id = se.id AND user_id = ?)
		   AND EXISTS (SELECT 1 FROM split_participants WHERE split_expense_id = se.id AND user_id = ?)
		 ORDER BY se.id`, userID, friendID)
}

// DeleteSplitExpense removes a split expense; participant rows cascade.
func (s *SQLiteStore) DeleteSplitExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM split_expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete split expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
