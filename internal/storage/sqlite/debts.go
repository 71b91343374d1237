package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateDebt inserts a debt and populates its ID.
func (s *SQLiteStore) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if debt.Status == "" {
		debt.Status = models.DebtActive
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, name, principal_amount, interest_rate, emi_amount, emi_date, start_date, remaining_amount, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.UserID, debt.Name, debt.PrincipalAmount.String(), debt.InterestRate.String(),
		debt.EMIAmount.String(), debt.EMIDate, debt.StartDate.Format(dateLayout),
		debt.RemainingAmount.String(), debt.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create debt: %w", err)
	}

	debt.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read debt id: %w", err)
	}
	return nil
}

func scanDebt(scan func(dest ...interface{}) error) (*models.Debt, error) {
	debt := &models.Debt{}
	var principal, rate, emi, remaining, start string

	if err := scan(&debt.ID, &debt.UserID, &debt.Name, &principal, &rate, &emi,
		&debt.EMIDate, &start, &remaining, &debt.Status); err != nil {
		return nil, err
	}

	var err error
	if debt.PrincipalAmount, err = parseDecimal(principal); err != nil {
		return nil, err
	}
	if debt.InterestRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	if debt.EMIAmount, err = parseDecimal(emi); err != nil {
		return nil, err
	}
	if debt.RemainingAmount, err = parseDecimal(remaining); err != nil {
		return nil, err
	}
	if debt.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	return debt, nil
}

const debtColumns = `id, user_id, name, principal_amount, interest_rate, emi_amount, emi_date, start_date, remaining_amount, status`

// GetDebt retrieves a debt by ID.
func (s *SQLiteStore) GetDebt(ctx context.Context, id int64) (*models.Debt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)

	debt, err := scanDebt(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// ListDebts retrieves all debts owned by a user.
func (s *SQLiteStore) ListDebts(ctx context.Context, userID int64) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}

// UpdateDebt updates an existing debt.
func (s *SQLiteStore) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE debts SET name = ?, principal_amount = ?, interest_rate = ?, emi_amount = ?,
		 emi_date = ?, start_date = ?, remaining_amount = ?, status = ? WHERE id = ?`,
		debt.Name, debt.PrincipalAmount.String(), debt.InterestRate.String(), debt.EMIAmount.String(),
		debt.EMIDate, debt.StartDate.Format(dateLayout), debt.RemainingAmount.String(), debt.Status, debt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDebt removes a debt by ID.
func (s *SQLiteStore) DeleteDebt(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListDebtsDueOn retrieves every active debt whose EMI falls on the given day
// of the month. Used by the EMI-reminder job.
func (s *SQLiteStore) ListDebtsDueOn(ctx context.Context, day int) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE status = ? AND emi_date = ? ORDER BY user_id`,
		models.DebtActive, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts due: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}
