package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/storage"
)

// CreateFriendship inserts a friendship request and populates its ID.
func (s *SQLiteStore) CreateFriendship(ctx context.Context, friendship *models.Friendship) error {
	if friendship.Status == "" {
		friendship.Status = models.FriendshipPending
	}
	if friendship.CreatedAt == 0 {
		friendship.CreatedAt = time.Now().Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO friendships (user_id, friend_id, status, created_at) VALUES (?, ?, ?, ?)`,
		friendship.UserID, friendship.FriendID, friendship.Status, friendship.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	friendship.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read friendship id: %w", err)
	}
	return nil
}

func scanFriendship(scan func(dest ...interface{}) error) (*models.Friendship, error) {
	f := &models.Friendship{}
	if err := scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt); err != nil {
		return nil, err
	}
	return f, nil
}

// GetFriendship retrieves a friendship by ID.
func (s *SQLiteStore) GetFriendship(ctx context.Context, id int64) (*models.Friendship, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, friend_id, status, created_at FROM friendships WHERE id = ?`, id)

	f, err := scanFriendship(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return f, nil
}

// GetFriendshipBetween retrieves the friendship linking two users in either
// direction, regardless of status.
func (s *SQLiteStore) GetFriendshipBetween(ctx context.Context, userID, friendID int64) (*models.Friendship, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, friend_id, status, created_at FROM friendships
		 WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)`,
		userID, friendID, friendID, userID)

	f, err := scanFriendship(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) queryFriendships(ctx context.Context, query string, args ...interface{}) ([]*models.Friendship, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friendship: %w", err)
		}
		friendships = append(friendships, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friendships: %w", err)
	}
	return friendships, nil
}

// ListFriendships retrieves friendships involving a user on either side,
// filtered by status.
func (s *SQLiteStore) ListFriendships(ctx context.Context, userID int64, status string) ([]*models.Friendship, error) {
	return s.queryFriendships(ctx,
		`SELECT id, user_id, friend_id, status, created_at FROM friendships
		 WHERE (user_id = ? OR friend_id = ?) AND status = ? ORDER BY id`,
		userID, userID, status)
}

// ListFriendRequests retrieves pending requests received by a user.
func (s *SQLiteStore) ListFriendRequests(ctx context.Context, userID int64) ([]*models.Friendship, error) {
	return s.queryFriendships(ctx,
		`SELECT id, user_id, friend_id, status, created_at FROM friendships
		 WHERE friend_id = ? AND status = ? ORDER BY id`,
		userID, models.FriendshipPending)
}

// UpdateFriendshipStatus transitions a friendship to a new status.
func (s *SQLiteStore) UpdateFriendshipStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE friendships SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteFriendship removes a friendship by ID.
func (s *SQLiteStore) DeleteFriendship(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete friendship: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
