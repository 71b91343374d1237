package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateTransaction inserts a payment transaction and populates its ID.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().Unix()
	if txn.CreatedAt == 0 {
		txn.CreatedAt = now
	}
	if txn.UpdatedAt == 0 {
		txn.UpdatedAt = now
	}
	if txn.Status == "" {
		txn.Status = models.TxnPending
	}

	var intentID, debtID, splitID, desc interface{}
	if txn.IntentID != "" {
		intentID = txn.IntentID
	}
	if txn.DebtID != 0 {
		debtID = txn.DebtID
	}
	if txn.SplitExpenseID != 0 {
		splitID = txn.SplitExpenseID
	}
	if txn.Description != "" {
		desc = txn.Description
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, intent_id, reference, amount, currency, payment_method,
		 transaction_type, debt_id, split_expense_id, status, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.UserID, intentID, txn.Reference, txn.Amount.String(), txn.Currency,
		txn.PaymentMethod, txn.Type, debtID, splitID, txn.Status, desc, txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	txn.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	return nil
}

func scanTransaction(scan func(dest ...interface{}) error) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var amount string
	var intentID, desc sql.NullString
	var debtID, splitID sql.NullInt64

	if err := scan(&txn.ID, &txn.UserID, &intentID, &txn.Reference, &amount, &txn.Currency,
		&txn.PaymentMethod, &txn.Type, &debtID, &splitID, &txn.Status, &desc,
		&txn.CreatedAt, &txn.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if txn.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if intentID.Valid {
		txn.IntentID = intentID.String
	}
	if desc.Valid {
		txn.Description = desc.String
	}
	if debtID.Valid {
		txn.DebtID = debtID.Int64
	}
	if splitID.Valid {
		txn.SplitExpenseID = splitID.Int64
	}
	return txn, nil
}

const txnColumns = `id, user_id, intent_id, reference, amount, currency, payment_method,
	transaction_type, debt_id, split_expense_id, status, description, created_at, updated_at`

// GetTransactionByIntentID retrieves the transaction for a gateway intent.
func (s *SQLiteStore) GetTransactionByIntentID(ctx context.Context, intentID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE intent_id = ?`, intentID)

	txn, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions retrieves a user's transactions, newest first.
func (s *SQLiteStore) ListTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// UpdateTransactionStatus transitions a transaction to a new status.
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = ?, updated_at = ? WHERE id = ?`,
		status, updatedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HasSucceededSplitPayment reports whether the user already paid their share
// of a split expense.
func (s *SQLiteStore) HasSucceededSplitPayment(ctx context.Context, userID, splitExpenseID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM transactions
		 WHERE user_id = ? AND split_expense_id = ? AND status = ? LIMIT 1`,
		userID, splitExpenseID, models.TxnSucceeded,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check split payment: %w", err)
	}
	return true, nil
}
