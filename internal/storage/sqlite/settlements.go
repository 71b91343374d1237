package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
)

// CreateSettlement persists a settlement. Settlements are append-only; there
// are no update or delete paths.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (group_id, from_user_id, to_user_id, amount, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.String(), settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	settlement.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read settlement id: %w", err)
	}
	return nil
}

func (s *SQLiteStore) querySettlements(ctx context.Context, query string, args ...interface{}) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var amount string
		if err := rows.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID,
			&settlement.ToUserID, &amount, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if settlement.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// ListGroupSettlements retrieves all settlements recorded in a group, oldest
// first.
func (s *SQLiteStore) ListGroupSettlements(ctx context.Context, groupID int64) ([]*models.Settlement, error) {
	return s.querySettlements(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, created_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at, id`, groupID)
}

// ListSettlementsBetween retrieves peer-to-peer settlements between two users
// in either direction.
func (s *SQLiteStore) ListSettlementsBetween(ctx context.Context, userID, friendID int64) ([]*models.Settlement, error) {
	return s.querySettlements(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, created_at
		 FROM settlements
		 WHERE group_id = 0
		   AND ((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))
		 ORDER BY created_at, id`,
		userID, friendID, friendID, userID)
}
