package models

// Friendship statuses.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship links two users. UserID sent the request, FriendID received it;
// once accepted the relation is symmetric.
type Friendship struct {
	ID        int64
	UserID    int64
	FriendID  int64
	Status    string
	CreatedAt int64
}

// Involves reports whether the given user is on either side.
func (f Friendship) Involves(userID int64) bool {
	return f.UserID == userID || f.FriendID == userID
}

// Other returns the counterpart of the given user in this friendship.
func (f Friendship) Other(userID int64) int64 {
	if f.UserID == userID {
		return f.FriendID
	}
	return f.UserID
}
