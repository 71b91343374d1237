package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateGroup inserts a group and its creator's admin membership in one
// transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, creator *models.GroupMember) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = "INR"
	}
	group.IsActive = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var desc interface{}
	if group.Description != "" {
		desc = group.Description
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO groups (name, description, currency, created_by, is_active, created_at)
		 VALUES (?, ?, ?, ?, 1, ?)`,
		group.Name, desc, group.Currency, group.CreatedBy, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	if group.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read group id: %w", err)
	}

	creator.GroupID = group.ID
	if creator.JoinedAt == 0 {
		creator.JoinedAt = group.CreatedAt
	}
	memberRes, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, status, joined_at) VALUES (?, ?, ?, ?, ?)`,
		creator.GroupID, creator.UserID, creator.Role, creator.Status, creator.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group creator: %w", err)
	}
	if creator.ID, err = memberRes.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read member id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanGroup(scan func(dest ...interface{}) error) (*models.Group, error) {
	group := &models.Group{}
	var desc sql.NullString
	if err := scan(&group.ID, &group.Name, &desc, &group.Currency,
		&group.CreatedBy, &group.IsActive, &group.CreatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		group.Description = desc.String
	}
	return group, nil
}

const groupColumns = `id, name, description, currency, created_by, is_active, created_at`

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ?`, id)

	group, err := scanGroup(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroupsForUser retrieves groups where the user has a membership with the
// given status.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID int64, memberStatus string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.currency, g.created_by, g.is_active, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ? AND gm.status = ? AND g.is_active = 1
		 ORDER BY g.id`, userID, memberStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup updates a group's name, description and currency.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	var desc interface{}
	if group.Description != "" {
		desc = group.Description
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, description = ?, currency = ? WHERE id = ?`,
		group.Name, desc, group.Currency, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteGroup removes a group; members, expenses and shares cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AddGroupMember inserts a membership row and populates its ID.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if member.Status == "" {
		member.Status = models.MemberInvited
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, status, joined_at) VALUES (?, ?, ?, ?, ?)`,
		member.GroupID, member.UserID, member.Role, member.Status, member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add group member: %w", err)
	}

	member.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read member id: %w", err)
	}
	return nil
}

// GetGroupMember retrieves one user's membership in a group.
func (s *SQLiteStore) GetGroupMember(ctx context.Context, groupID, userID int64) (*models.GroupMember, error) {
	member := &models.GroupMember{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, user_id, role, status, joined_at FROM group_members
		 WHERE group_id = ? AND user_id = ?`, groupID, userID,
	).Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.Status, &member.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group member: %w", err)
	}
	return member, nil
}

// ListGroupMembers retrieves a group's members in join order, optionally
// filtered by status (empty means all). The ledger relies on this ordering
// for deterministic suggestions.
func (s *SQLiteStore) ListGroupMembers(ctx context.Context, groupID int64, status string) ([]*models.GroupMember, error) {
	query := `SELECT id, group_id, user_id, role, status, joined_at FROM group_members
		 WHERE group_id = ?`
	args := []interface{}{groupID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY joined_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		member := &models.GroupMember{}
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.Status, &member.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return members, nil
}

// UpdateGroupMember updates a membership's role and status.
func (s *SQLiteStore) UpdateGroupMember(ctx context.Context, member *models.GroupMember) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_members SET role = ?, status = ? WHERE group_id = ? AND user_id = ?`,
		member.Role, member.Status, member.GroupID, member.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RemoveGroupMember deletes a membership row.
func (s *SQLiteStore) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove group member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
