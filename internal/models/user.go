package models

import "time"

// User is a registered account. Participants in shared expenses and groups
// are always users; there are no anonymous participants.
type User struct {
	// ID is the numeric identifier assigned by storage.
	ID int64

	// Username is the unique display name, used for friend lookups.
	Username string

	// Email is the unique login address, also used for notifications.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// IsActive is false for deactivated accounts.
	IsActive bool

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}

// NewUser builds a user ready for insertion. Storage assigns the ID.
func NewUser(username, email, passwordHash string) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    time.Now().Unix(),
	}
}
