package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/saks786/expense-tracker/internal/httpx"
	"github.com/saks786/expense-tracker/internal/ledger"
	"github.com/saks786/expense-tracker/internal/middleware"
	"github.com/saks786/expense-tracker/internal/models"
	"github.com/saks786/expense-tracker/internal/notifier"
	"github.com/saks786/expense-tracker/internal/storage"
)

// FriendService handles friend requests and the pair-scoped balance view.
type FriendService struct {
	store  storage.Store
	mailer notifier.Mailer
}

// NewFriendService creates a friend service.
func NewFriendService(store storage.Store, mailer notifier.Mailer) *FriendService {
	return &FriendService{store: store, mailer: mailer}
}

type friendRequestRequest struct {
	Username string `json:"username"`
}

type friendResponse struct {
	FriendshipID int64  `json:"friendship_id"`
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	Status       string `json:"status"`
}

// Request sends a friend request to the named user.
func (s *FriendService) Request(w http.ResponseWriter, r *http.Request) {
	var req friendRequestRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	friend, err := s.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, err)
		return
	}
	if friend.ID == userID {
		respondError(w, fmt.Errorf("%w: cannot send a friend request to yourself", errSelfReference))
		return
	}

	if _, err := s.store.GetFriendshipBetween(r.Context(), userID, friend.ID); err == nil {
		respondError(w, fmt.Errorf("%w: friendship already exists", errAlreadyExists))
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondError(w, err)
		return
	}

	friendship := &models.Friendship{
		UserID:    userID,
		FriendID:  friend.ID,
		Status:    models.FriendshipPending,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.CreateFriendship(r.Context(), friendship); err != nil {
		respondError(w, err)
		return
	}

	sendMailAsync(s.mailer, friend.Email,
		"New friend request",
		fmt.Sprintf("<p>Hi %s,</p><p>%s sent you a friend request.</p>",
			friend.Username, middleware.GetUsername(r.Context())),
	)

	httpx.JSON(w, http.StatusCreated, friendResponse{
		FriendshipID: friendship.ID,
		UserID:       friend.ID,
		Username:     friend.Username,
		Status:       friendship.Status,
	})
}

// List returns the user's accepted friends.
func (s *FriendService) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendships, err := s.store.ListFriendships(r.Context(), userID, models.FriendshipAccepted)
	if err != nil {
		respondError(w, err)
		return
	}
	resp, err := s.friendResponses(r, userID, friendships)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Requests returns the pending friend requests addressed to the user.
func (s *FriendService) Requests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	friendships, err := s.store.ListFriendRequests(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	resp, err := s.friendResponses(r, userID, friendships)
	if err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (s *FriendService) friendResponses(r *http.Request, userID int64, friendships []*models.Friendship) ([]friendResponse, error) {
	ids := make([]int64, 0, len(friendships))
	for _, f := range friendships {
		ids = append(ids, f.Other(userID))
	}
	users, err := s.store.GetUsersByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}

	resp := make([]friendResponse, 0, len(friendships))
	for _, f := range friendships {
		other := f.Other(userID)
		username := ""
		if u, ok := users[other]; ok {
			username = u.Username
		}
		resp = append(resp, friendResponse{
			FriendshipID: f.ID,
			UserID:       other,
			Username:     username,
			Status:       f.Status,
		})
	}
	return resp, nil
}

// Accept accepts a pending friend request addressed to the user.
func (s *FriendService) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	friendship, err := s.store.GetFriendship(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if friendship.FriendID != middleware.GetUserID(r.Context()) {
		respondError(w, fmt.Errorf("%w: only the recipient can accept", errNotOwner))
		return
	}
	if friendship.Status != models.FriendshipPending {
		httpx.ErrorMsg(w, http.StatusBadRequest, "friend request is not pending")
		return
	}

	if err := s.store.UpdateFriendshipStatus(r.Context(), id, models.FriendshipAccepted); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "friend request accepted"})
}

// Delete removes a friendship (or rejects a pending request) the user is part of.
func (s *FriendService) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}

	friendship, err := s.store.GetFriendship(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !friendship.Involves(middleware.GetUserID(r.Context())) {
		respondError(w, errNotOwner)
		return
	}

	if err := s.store.DeleteFriendship(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"detail": "friendship removed"})
}

type friendBalanceResponse struct {
	FriendID       int64           `json:"friend_id"`
	FriendUsername string          `json:"friend_username"`

	// Balance is from the requester's point of view: positive means the
	// friend owes them, negative means they owe the friend.
	Balance decimal.Decimal `json:"balance"`
}

// Balance recomputes the pair-scope ledger between the user and the friend
// identified by the path user ID. Split expenses between the two and their
// peer settlements are folded fresh on every call.
func (s *FriendService) Balance(w http.ResponseWriter, r *http.Request) {
	friendID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, err)
		return
	}
	userID := middleware.GetUserID(r.Context())

	friendship, err := s.store.GetFriendshipBetween(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, err)
		return
	}
	if friendship.Status != models.FriendshipAccepted {
		respondError(w, errNotFriends)
		return
	}

	friend, err := s.store.GetUserByID(r.Context(), friendID)
	if err != nil {
		respondError(w, err)
		return
	}

	splits, err := s.store.ListSplitExpensesBetween(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, err)
		return
	}
	settlements, err := s.store.ListSettlementsBetween(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, err)
		return
	}

	participants := []ledger.Participant{
		{ID: userID, Username: middleware.GetUsername(r.Context())},
		{ID: friendID, Username: friend.Username},
	}

	expenses, err := splitsToSharedExpenses(splits)
	if err != nil {
		respondError(w, err)
		return
	}

	balances, err := ledger.ComputeBalances(expenses, settlementsToLedger(settlements), participants)
	if err != nil {
		respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, friendBalanceResponse{
		FriendID:       friendID,
		FriendUsername: friend.Username,
		Balance:        balances[userID],
	})
}

// splitsToSharedExpenses converts split-expense records into ledger expenses.
// The creator paid the total and every participant owes an equal share, with
// the rounding remainder on the creator.
func splitsToSharedExpenses(splits []*models.SplitExpense) ([]ledger.SharedExpense, error) {
	expenses := make([]ledger.SharedExpense, 0, len(splits))
	for _, sp := range splits {
		shares, err := ledger.EqualShares(sp.TotalAmount, sp.CreatedBy, sp.ParticipantIDs)
		if err != nil {
			return nil, fmt.Errorf("split expense %d: %w", sp.ID, err)
		}
		expenses = append(expenses, ledger.SharedExpense{
			ID:          sp.ID,
			Description: sp.Description,
			Total:       sp.TotalAmount,
			PayerID:     sp.CreatedBy,
			Shares:      shares,
		})
	}
	return expenses, nil
}

func settlementsToLedger(settlements []*models.Settlement) []ledger.Settlement {
	out := make([]ledger.Settlement, 0, len(settlements))
	for _, st := range settlements {
		out = append(out, ledger.Settlement{
			ID:        st.ID,
			FromID:    st.FromUserID,
			ToID:      st.ToUserID,
			Amount:    st.Amount,
			CreatedAt: time.Unix(st.CreatedAt, 0),
		})
	}
	return out
}
